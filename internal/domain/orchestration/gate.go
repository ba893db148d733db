package orchestration

import (
	"regexp"
	"strings"
)

// Words allowed between a creation verb and the deliverable noun, e.g.
// "make me a short 10-slide presentation". Prepositions are excluded so
// "write an essay about presentation skills" does not read as a request
// for slides.
const fillerWords = `(?:(?:me|us|a|an|the|some|my|our|short|brief|quick|new|simple|detailed|professional|engaging|compelling|polished|nice|good|full|complete|\d+|\d+-slides?|\d+-minute)\s+){0,5}`

var (
	// "deck" and "keynote" count only when qualified ("pitch deck",
	// "keynote slides").
	presentationRequest = regexp.MustCompile(`(?i)\b(?:create|make|build|generate|prepare|design|draft|produce|put\s+together|give)\s+` +
		fillerWords + `(?:presentation|slides|slide\s*deck|slideshow|(?:pitch|presentation|\d+-slides?)\s+deck|power\s*point|keynote\s+(?:slides|presentation|deck))s?\b`)

	// negatedBefore matches a negation just ahead of a request, as in
	// "don't create a presentation".
	negatedBefore = regexp.MustCompile(`(?i)\b(?:don['’]?t|do\s+not|not|never|instead\s+of|rather\s+than|without|no\s+need\s+to)\s+(?:\S+\s+){0,2}$`)

	creationRequest = regexp.MustCompile(`(?i)\b(?:create|write|draft|compose|prepare|make|build|generate|design|develop|produce|outline|put\s+together)\s+` +
		`(?:\S+\s+){0,6}?(?:presentation|slides?|slide\s*deck|deck|essay|article|blog\s+post|post|sermon|homily|devotional|course|curriculum|lesson\s+plan|lessons?|report|paper|outline|guide|newsletter|study)s?\b`)
)

// longInstructionWords is the length past which a request is treated as a
// multi-part instruction worth orchestrating even without a creation verb.
const longInstructionWords = 60

// IsExplicitPresentationRequest reports whether the caller's own text asks
// for a presentation, as opposed to merely mentioning one.
// A request preceded by a negation does not count.
func IsExplicitPresentationRequest(text string) bool {
	for _, m := range presentationRequest.FindAllStringIndex(text, -1) {
		if !negatedBefore.MatchString(text[:m[0]]) {
			return true
		}
	}
	return false
}

// ShouldOrchestrate decides whether a message warrants a multi-agent run.
// Simple questions such as "What is grace?" return false and are expected
// to be answered by a single chat completion instead.
func ShouldOrchestrate(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if IsExplicitPresentationRequest(text) || creationRequest.MatchString(text) {
		return true
	}
	return len(strings.Fields(text)) > longInstructionWords
}
