// Package agent defines specialist agent descriptors and their categories.
package agent

import (
	"errors"
	"fmt"
)

// ErrAgentNotFound is returned when an agent id is absent from the catalog.
var ErrAgentNotFound = errors.New("agent not found")

// ErrUnknownCategory is returned when a descriptor names no known category.
var ErrUnknownCategory = errors.New("unknown agent category")

// Category groups agents by the execution flow they need.
type Category string

const (
	CategoryReasoning  Category = "reasoning"
	CategoryResearch   Category = "research"
	CategoryPlanning   Category = "planning"
	CategoryWriting    Category = "writing"
	CategoryEditing    Category = "editing"
	CategoryFormatting Category = "formatting"
	CategoryImage      Category = "image"
	CategoryGeneral    Category = "general"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryReasoning, CategoryResearch, CategoryPlanning, CategoryWriting,
	CategoryEditing, CategoryFormatting, CategoryImage, CategoryGeneral,
}

// Mode is the backend entry point an agent's calls go through.
type Mode int

const (
	// ModeText produces text via a completion call, grounded unless the caller opts out.
	ModeText Mode = iota + 1
	// ModeImage produces an image reference via the image generation entry point.
	ModeImage
)

// Mode maps a category onto its execution flow. Every category must be
// listed; an unlisted value is reported as ErrUnknownCategory.
func (c Category) Mode() (Mode, error) {
	switch c {
	case CategoryReasoning, CategoryResearch, CategoryPlanning, CategoryWriting,
		CategoryEditing, CategoryFormatting, CategoryGeneral:
		return ModeText, nil
	case CategoryImage:
		return ModeImage, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
}

// Capability is a skill an agent offers and an analysis may require.
type Capability string

const (
	CapabilityResearch        Capability = "research"
	CapabilityContentWriting  Capability = "content-writing"
	CapabilityEditing         Capability = "editing"
	CapabilityFormatting      Capability = "formatting"
	CapabilityImageGeneration Capability = "image-generation"
	CapabilityPlanning        Capability = "planning"
	CapabilityReasoning       Capability = "reasoning"
	CapabilityTheology        Capability = "theology"
	CapabilitySEO             Capability = "seo"
	CapabilityCurriculum      Capability = "curriculum"
	CapabilityFactChecking    Capability = "fact-checking"
)

// Capabilities lists every known capability in a stable order.
var Capabilities = []Capability{
	CapabilityResearch, CapabilityContentWriting, CapabilityEditing,
	CapabilityFormatting, CapabilityImageGeneration, CapabilityPlanning,
	CapabilityReasoning, CapabilityTheology, CapabilitySEO,
	CapabilityCurriculum, CapabilityFactChecking,
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	for _, k := range Capabilities {
		if c == k {
			return true
		}
	}
	return false
}

// Complexity is a coarse effort estimate used for model selection.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Rank orders complexities; unknown values rank as moderate.
func (c Complexity) Rank() int {
	switch c {
	case ComplexitySimple:
		return 0
	case ComplexityComplex:
		return 2
	default:
		return 1
	}
}

// Valid reports whether c is one of the three known levels.
func (c Complexity) Valid() bool {
	return c == ComplexitySimple || c == ComplexityModerate || c == ComplexityComplex
}

// MaxComplexity returns the higher of a and b.
// Unknown values count as moderate.
func MaxComplexity(a, b Complexity) Complexity {
	if !a.Valid() {
		a = ComplexityModerate
	}
	if !b.Valid() {
		b = ComplexityModerate
	}
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Descriptor describes one specialist agent in the catalog.
type Descriptor struct {
	ID                 string       `json:"id" yaml:"id"`
	Name               string       `json:"name" yaml:"name"`
	Description        string       `json:"description" yaml:"description"`
	Category           Category     `json:"category" yaml:"category"`
	DefaultModel       string       `json:"default_model,omitempty" yaml:"default_model"`
	Responsibilities   []string     `json:"responsibilities" yaml:"responsibilities"`
	Capabilities       []Capability `json:"capabilities" yaml:"capabilities"`
	Temperature        float64      `json:"temperature" yaml:"temperature"`
	MaxOutputTokens    int          `json:"max_output_tokens" yaml:"max_output_tokens"`
	BaselineComplexity Complexity   `json:"baseline_complexity" yaml:"baseline_complexity"`
}

// HasCapability reports whether the agent offers c.
func (d *Descriptor) HasCapability(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Validate checks a descriptor loaded from static data.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return errors.New("agent id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("agent %s: name is required", d.ID)
	}
	if _, err := d.Category.Mode(); err != nil {
		return fmt.Errorf("agent %s: %w", d.ID, err)
	}
	for _, c := range d.Capabilities {
		if !c.Valid() {
			return fmt.Errorf("agent %s: unknown capability %q", d.ID, c)
		}
	}
	if d.BaselineComplexity != "" && !d.BaselineComplexity.Valid() {
		return fmt.Errorf("agent %s: invalid baseline complexity %q", d.ID, d.BaselineComplexity)
	}
	if d.Temperature < 0 || d.Temperature > 2 {
		return fmt.Errorf("agent %s: temperature out of range", d.ID)
	}
	return nil
}
