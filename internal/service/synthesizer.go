package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// Agents whose outputs fill fixed slots of a deliverable.
const (
	agentPresentationFormatter = "presentation-formatter"
	agentTitleGenerator        = "title-generator"
	agentIntroductionWriter    = "introduction-writer"
	agentBodyWriter            = "body-writer"
	agentContentWriter         = "content-writer"
	agentConclusionWriter      = "conclusion-writer"
	agentSEOOptimizer          = "seo-optimizer"
)

var slideMarker = regexp.MustCompile(`(?im)^(?:#{1,3}\s*slide\b|slide\s+\d+\s*:|---\s*$|<!--\s*slide\s*-->)`)

// looksLikeSlides reports whether text carries at least two slide boundaries.
func looksLikeSlides(text string) bool {
	return len(slideMarker.FindAllStringIndex(text, 2)) >= 2
}

// Synthesize merges executions into a deliverable. It is deterministic and
// never fails; missing pieces degrade to empty slots or a warning.
func Synthesize(execs []orchestration.Execution, analysis *orchestration.Analysis) orchestration.Deliverable {
	switch analysis.DeliverableType {
	case orchestration.DeliverablePresentation:
		return synthesizePresentation(execs)
	case orchestration.DeliverableEssay, orchestration.DeliverableArticle, orchestration.DeliverableSermon:
		return synthesizeSections(execs, analysis.DeliverableType)
	case orchestration.DeliverableCourse:
		return orchestration.Deliverable{
			Type:    orchestration.DeliverableCourse,
			Modules: []orchestration.CourseModule{},
			Warning: "course assembly is not implemented; see executions for agent output",
		}
	default:
		return synthesizeGeneral(execs)
	}
}

func synthesizePresentation(execs []orchestration.Execution) orchestration.Deliverable {
	d := orchestration.Deliverable{Type: orchestration.DeliverablePresentation}

	if e := lastSuccessful(execs, agentPresentationFormatter); e != nil {
		d.Content = e.Text()
		d.SourceAgent = e.AgentID
		return d
	}
	for i := range execs {
		e := &execs[i]
		if e.Succeeded() && looksLikeSlides(e.Text()) {
			d.Content = e.Text()
			d.SourceAgent = e.AgentID
			return d
		}
	}

	var b strings.Builder
	for i := range execs {
		e := &execs[i]
		if !e.Succeeded() {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", e.AgentName, e.Text())
	}
	d.Content = b.String()
	d.Warning = "no formatted slide deck was produced; content is the concatenated agent output"
	return d
}

func synthesizeSections(execs []orchestration.Execution, dt orchestration.DeliverableType) orchestration.Deliverable {
	s := orchestration.Sections{
		Title:        slotText(execs, agentTitleGenerator),
		Introduction: slotText(execs, agentIntroductionWriter),
		Body:         slotText(execs, agentBodyWriter),
		Conclusion:   slotText(execs, agentConclusionWriter),
	}
	if s.Body == "" {
		s.Body = slotText(execs, agentContentWriter)
	}
	if dt == orchestration.DeliverableArticle {
		s.SEO = slotText(execs, agentSEOOptimizer)
	}

	parts := make([]string, 0, 5)
	if s.Title != "" {
		parts = append(parts, "# "+strings.TrimLeft(s.Title, "# "))
	}
	for _, p := range []string{s.Introduction, s.Body, s.Conclusion, s.SEO} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	d := orchestration.Deliverable{
		Type:     dt,
		Sections: &s,
		Content:  strings.Join(parts, "\n\n"),
	}
	if d.Content == "" {
		d.Warning = "no section writer produced output"
	}
	return d
}

func synthesizeGeneral(execs []orchestration.Execution) orchestration.Deliverable {
	items := make([]orchestration.AgentOutput, 0, len(execs))
	for i := range execs {
		e := &execs[i]
		if e.Succeeded() {
			items = append(items, orchestration.AgentOutput{AgentName: e.AgentName, Output: e.Text()})
		}
	}
	return orchestration.Deliverable{Type: orchestration.DeliverableGeneral, Items: items}
}

// lastSuccessful returns the last successful execution by agentID, so a
// later revision wins over an earlier draft.
func lastSuccessful(execs []orchestration.Execution, agentID string) *orchestration.Execution {
	for i := len(execs) - 1; i >= 0; i-- {
		if execs[i].AgentID == agentID && execs[i].Succeeded() {
			return &execs[i]
		}
	}
	return nil
}

func slotText(execs []orchestration.Execution, agentID string) string {
	if e := lastSuccessful(execs, agentID); e != nil {
		return strings.TrimSpace(e.Text())
	}
	return ""
}
