// Package catalog implements the agent catalog port over static YAML data.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/AgentForge/internal/domain/agent"
)

//go:embed agents.yaml
var embeddedAgents []byte

type file struct {
	Agents []agent.Descriptor `yaml:"agents"`
}

// Catalog is an immutable, validated set of agent descriptors.
type Catalog struct {
	byID map[string]agent.Descriptor
	ids  []string
}

// Default loads the embedded agent definitions.
func Default() (*Catalog, error) {
	return Parse(embeddedAgents)
}

// LoadFile loads agent definitions from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML. Every descriptor must validate and ids
// must be unique.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{byID: make(map[string]agent.Descriptor, len(f.Agents))}
	for i := range f.Agents {
		d := f.Agents[i]
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate agent id %q", d.ID)
		}
		c.byID[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Lookup returns the agent with the given id.
func (c *Catalog) Lookup(id string) (agent.Descriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// ByCapability returns every agent offering capability, ordered by id.
func (c *Catalog) ByCapability(capability agent.Capability) []agent.Descriptor {
	var out []agent.Descriptor
	for _, id := range c.ids {
		d := c.byID[id]
		if d.HasCapability(capability) {
			out = append(out, d)
		}
	}
	return out
}

// All returns every agent, ordered by id.
func (c *Catalog) All() []agent.Descriptor {
	out := make([]agent.Descriptor, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}
