package natskv

import "testing"

func TestKVKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"analysis:ab12", "analysis.ab12"},
		{"plain-key_1", "plain-key_1"},
		{"a b/c", "a.b/c"},
	}
	for _, tt := range tests {
		if got := kvKey(tt.in); got != tt.want {
			t.Errorf("kvKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
