package orchestration_test

import (
	"testing"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

func TestShouldOrchestrate(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"What is grace?", false},
		{"who wrote Romans?", false},
		{"Thanks!", false},
		{"", false},
		{"Create a presentation about servant leadership", true},
		{"Can you write an essay on forgiveness for high schoolers?", true},
		{"Draft a sermon on Psalm 23", true},
		{"Please put together a 6-week course on biblical leadership", true},
		{"Make me slides on the history of the printing press", true},
	}
	for _, tt := range tests {
		if got := orchestration.ShouldOrchestrate(tt.text); got != tt.want {
			t.Errorf("ShouldOrchestrate(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsExplicitPresentationRequest(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Create a presentation about servant leadership", true},
		{"make me slides on photosynthesis", true},
		{"Build a short 10-slide deck for the board", true},
		{"Prepare a PowerPoint on cybersecurity", true},
		{"Write an essay about presentation skills", false},
		{"Create an essay on presentation techniques", false},
		{"How do I give better presentations?", false},
		{"Tell me about slides in playgrounds", false},
		{"Build a deck for my backyard patio", false},
		{"Prepare a keynote address on grace", false},
		{"Don't create a presentation, write an essay on grace", false},
		{"Please do not make slides, just a short article", false},
		{"Write an essay instead of creating a presentation", false},
		{"Create a pitch deck for our seed round", true},
		{"Prepare keynote slides on grace", true},
		{"Don't overthink it, just create a presentation on grace", true},
	}
	for _, tt := range tests {
		if got := orchestration.IsExplicitPresentationRequest(tt.text); got != tt.want {
			t.Errorf("IsExplicitPresentationRequest(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
