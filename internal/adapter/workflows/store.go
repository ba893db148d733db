// Package workflows implements the workflow template store over embedded
// YAML, optionally overridden by files in a directory.
package workflows

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/domain/workflow"
)

//go:embed templates.yaml
var embeddedTemplates []byte

type file struct {
	Workflows []workflow.Template `yaml:"workflows"`
}

// Store serves templates by deliverable type. Overrides loaded from the
// configured directory take precedence over the embedded set.
type Store struct {
	dir      string
	embedded map[orchestration.DeliverableType]workflow.Template

	mu        sync.RWMutex
	overrides map[orchestration.DeliverableType]workflow.Template
}

// New parses the embedded templates and loads overrides from dir, if set.
func New(dir string) (*Store, error) {
	embedded, err := parse(embeddedTemplates, "embedded")
	if err != nil {
		return nil, err
	}
	s := &Store{dir: dir, embedded: embedded}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Template returns the template for d.
func (s *Store) Template(d orchestration.DeliverableType) (workflow.Template, bool) {
	s.mu.RLock()
	t, ok := s.overrides[d]
	s.mu.RUnlock()
	if ok {
		return t, true
	}
	t, ok = s.embedded[d]
	return t, ok
}

// All returns the effective template set ordered by deliverable type.
func (s *Store) All() []workflow.Template {
	out := make([]workflow.Template, 0, len(orchestration.DeliverableTypes))
	for _, d := range orchestration.DeliverableTypes {
		if t, ok := s.Template(d); ok {
			out = append(out, t)
		}
	}
	return out
}

// Reload re-reads every *.yaml file in the override directory. On error
// the previously loaded overrides stay in effect.
func (s *Store) Reload() error {
	if s.dir == "" {
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("glob workflows: %w", err)
	}
	sort.Strings(paths)

	next := make(map[orchestration.DeliverableType]workflow.Template)
	for _, p := range paths {
		data, err := os.ReadFile(p) //nolint:gosec // operator-supplied directory
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		parsed, err := parse(data, filepath.Base(p))
		if err != nil {
			return err
		}
		for d, t := range parsed {
			next[d] = t
		}
	}

	s.mu.Lock()
	s.overrides = next
	s.mu.Unlock()
	return nil
}

func parse(data []byte, source string) (map[orchestration.DeliverableType]workflow.Template, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse workflows %s: %w", source, err)
	}
	out := make(map[orchestration.DeliverableType]workflow.Template, len(f.Workflows))
	for i := range f.Workflows {
		t := f.Workflows[i]
		d := orchestration.DeliverableType(strings.ToLower(t.Deliverable))
		if !d.Valid() {
			return nil, fmt.Errorf("workflows %s: unknown deliverable %q", source, t.Deliverable)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("workflows %s: %s: %w", source, d, err)
		}
		if _, dup := out[d]; dup {
			return nil, fmt.Errorf("workflows %s: deliverable %s defined twice", source, d)
		}
		out[d] = t
	}
	return out, nil
}
