// Package modelpolicy implements tiered model selection and pricing from the
// models section of the configuration.
package modelpolicy

import (
	"strings"

	"github.com/Strob0t/AgentForge/internal/config"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/modelpolicy"
)

// Keywords that push a task towards the fast tier.
var simpleKeywords = []string{
	"simple",
	"short",
	"brief",
	"quick",
	"list",
	"title",
	"summarize",
	"typo",
	"format",
}

// Keywords that push a task towards the advanced tier.
var complexKeywords = []string{
	"analyze",
	"analysis",
	"comprehensive",
	"in-depth",
	"theolog",
	"exegesis",
	"compare",
	"synthesize",
	"research",
	"architecture",
	"strategy",
	"curriculum",
}

var premiumKeywords = []string{"premium", "polished", "publication", "professional", "high quality", "high-quality"}

var draftKeywords = []string{"draft", "rough", "quick", "sketch", "brainstorm"}

// Word counts above which a task is considered longer than a one-liner.
const (
	moderateWords = 40
	complexWords  = 150
)

const fallbackTemperature = 0.7

// Policy is the config-driven model selection policy.
type Policy struct {
	models config.Models
}

var _ modelpolicy.Policy = (*Policy)(nil)

// New creates a Policy over the configured tiers and rate table.
func New(m config.Models) *Policy {
	return &Policy{models: m}
}

func (p *Policy) tiers() [3]string {
	return [3]string{p.models.Fast, p.models.Balanced, p.models.Advanced}
}

// SelectModel maps the criteria to a tier. Quality and preferences shift
// the complexity tier by one step each; the result is clamped.
func (p *Policy) SelectModel(c modelpolicy.Criteria) string {
	if c.RequiresImage {
		if p.models.Image != "" {
			return p.models.Image
		}
		return c.AgentDefault
	}

	idx := c.Complexity.Rank()
	switch c.Quality {
	case orchestration.QualityPremium:
		idx++
	case orchestration.QualityDraft:
		idx--
	}
	if c.SpeedPriority == orchestration.LevelHigh {
		idx--
	}
	if c.CostSensitivity == orchestration.LevelHigh {
		idx--
	}
	idx = max(0, min(idx, 2))

	if c.AgentDefault != "" && c.Baseline.Valid() && idx == c.Baseline.Rank() {
		return c.AgentDefault
	}
	model := p.tiers()[idx]
	if model == "" {
		return p.models.Balanced
	}
	return model
}

// EstimateCost prices output tokens on modelID using the rate table.
// Unknown models cost nothing.
func (p *Policy) EstimateCost(modelID string, tokens int) float64 {
	rate, ok := p.models.Rates[modelID]
	if !ok {
		return 0
	}
	if rate.PerImage > 0 {
		return rate.PerImage
	}
	if tokens < 0 {
		tokens = p.models.TypicalOutputTokens
	}
	return float64(tokens) * rate.OutputPerMillion / 1_000_000
}

// EstimateComplexity scores text by keywords and length, never returning
// less than the agent's baseline.
func (p *Policy) EstimateComplexity(text string, a agent.Descriptor) agent.Complexity {
	lower := strings.ToLower(text)
	words := len(strings.Fields(lower))

	heuristic := agent.ComplexityModerate
	switch {
	case containsAny(lower, complexKeywords) || words > complexWords:
		heuristic = agent.ComplexityComplex
	case containsAny(lower, simpleKeywords) && words <= moderateWords:
		heuristic = agent.ComplexitySimple
	case words <= moderateWords/4:
		heuristic = agent.ComplexitySimple
	}

	baseline := a.BaselineComplexity
	if !baseline.Valid() {
		baseline = agent.ComplexitySimple
	}
	return agent.MaxComplexity(heuristic, baseline)
}

// ResolveQuality prefers an explicit hint, then keywords in the text.
func (p *Policy) ResolveQuality(text string, hint orchestration.Quality) orchestration.Quality {
	if hint.Valid() {
		return hint
	}
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, premiumKeywords):
		return orchestration.QualityPremium
	case containsAny(lower, draftKeywords):
		return orchestration.QualityDraft
	default:
		return orchestration.QualityStandard
	}
}

// Parameters returns generation settings for the agent on modelID. Image
// models take no token budget.
func (p *Policy) Parameters(modelID string, a agent.Descriptor) modelpolicy.Params {
	params := modelpolicy.Params{
		Temperature:     a.Temperature,
		MaxOutputTokens: a.MaxOutputTokens,
	}
	if params.Temperature <= 0 {
		params.Temperature = fallbackTemperature
	}
	if rate, ok := p.models.Rates[modelID]; ok && rate.PerImage > 0 {
		params.MaxOutputTokens = 0
	} else if params.MaxOutputTokens <= 0 {
		params.MaxOutputTokens = p.models.TypicalOutputTokens * 2
	}
	return params
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
