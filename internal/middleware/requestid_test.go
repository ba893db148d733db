package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/AgentForge/internal/logger"
	"github.com/Strob0t/AgentForge/internal/middleware"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when missing", "", false},
		{"kept when well formed", "req-abc_123.4", true},
		{"replaced when it carries newlines", "abc\ninjected=1", false},
		{"replaced when too long", string(make([]byte, 65)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = logger.RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if seen == "" || rec.Header().Get("X-Request-ID") != seen {
				t.Fatalf("context id %q, header %q", seen, rec.Header().Get("X-Request-ID"))
			}
			if tt.keep != (seen == tt.incoming) {
				t.Fatalf("incoming %q, got %q", tt.incoming, seen)
			}
		})
	}
}
