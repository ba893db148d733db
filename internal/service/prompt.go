package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// Limits on how much earlier output is carried into a prompt.
const (
	maxDependencyChars = 12000
	maxImageContext    = 600
)

// dependencyOutput is one resolved entry from the run's results.
type dependencyOutput struct {
	Label  string
	Output string
}

// buildTaskPrompt composes an agent prompt from its identity, the task, the
// original request, earlier outputs, recent turns and the caller's preferences.
func buildTaskPrompt(desc agent.Descriptor, task *orchestration.Task, req *orchestration.Request, deps []dependencyOutput, historyTurns int) string {
	var b strings.Builder

	name := desc.Name
	if name == "" {
		name = desc.ID
	}
	fmt.Fprintf(&b, "You are %s.", name)
	if desc.Description != "" {
		b.WriteString(" ")
		b.WriteString(desc.Description)
	}
	b.WriteString("\n")
	if len(desc.Responsibilities) > 0 {
		b.WriteString("\nYour responsibilities:\n")
		for _, r := range desc.Responsibilities {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	b.WriteString("\n## Your task\n")
	b.WriteString(task.Text)
	b.WriteString("\n")

	b.WriteString("\n## Original request\n")
	b.WriteString(sanitizePromptInput(req.Task))
	b.WriteString("\n")

	if len(deps) > 0 {
		b.WriteString("\n## Work from other agents\n")
		budget := maxDependencyChars
		for _, d := range deps {
			out := d.Output
			if len(out) > budget {
				out = clipUTF8(out, budget) + "\n[truncated]"
			}
			fmt.Fprintf(&b, "\n### %s\n%s\n", d.Label, out)
			budget -= len(out)
			if budget <= 0 {
				break
			}
		}
	}

	if turns := recentTurns(req.Context.PriorTurns, historyTurns); len(turns) > 0 {
		b.WriteString("\n## Recent conversation\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, sanitizePromptInput(t.Content))
		}
	}

	if prefs := preferenceLines(req.Preferences); len(prefs) > 0 {
		b.WriteString("\n## Preferences\n")
		for _, p := range prefs {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	return b.String()
}

// buildImagePrompt keeps image prompts short: the task plus a clipped
// summary of the preceding work.
func buildImagePrompt(task *orchestration.Task, deps []dependencyOutput) string {
	var b strings.Builder
	b.WriteString(task.Text)
	if len(deps) == 0 {
		return b.String()
	}
	ctx := deps[len(deps)-1].Output
	ctx = clipUTF8(ctx, maxImageContext)
	b.WriteString("\n\nContext: ")
	b.WriteString(strings.TrimSpace(ctx))
	return b.String()
}

func recentTurns(turns []orchestration.Turn, n int) []orchestration.Turn {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}

func preferenceLines(p orchestration.Preferences) []string {
	var out []string
	if p.Audience != "" {
		out = append(out, "Audience: "+sanitizePromptInput(p.Audience))
	}
	if p.Quality != "" {
		out = append(out, "Quality: "+string(p.Quality))
	}
	if p.SpeedPriority == orchestration.LevelHigh {
		out = append(out, "Be concise; speed matters more than depth.")
	}
	if p.ImageStyle != "" {
		out = append(out, "Visual style: "+p.ImageStyle)
	}
	return out
}

// clipUTF8 returns at most n bytes of s without splitting a multi-byte rune.
func clipUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
