package middleware

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/Strob0t/AgentForge/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyBody   = 1 << 20 // 1 MB
	idempotencyKeyPrefix = "idem:"
)

// idempotencyEntry stores a recorded HTTP response.
type idempotencyEntry struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the recorded response for a repeated POST carrying
// the same Idempotency-Key, so a retried orchestrate call does not start a
// second run. Server errors are not recorded.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(headerIdempotencyKey)
			if r.Method != http.MethodPost || raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			key := idempotencyCacheKey(r.URL.Path, raw)

			if data, ok, err := c.Get(r.Context(), key); err != nil {
				slog.Warn("idempotency lookup failed", "error", err)
			} else if ok {
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					w.Header().Set("Content-Type", cached.ContentType)
					w.Header().Set(headerReplayed, "true")
					w.WriteHeader(cached.StatusCode)
					_, _ = w.Write(cached.Body)
					return
				}
				slog.Warn("idempotency: corrupt cache entry", "key", key)
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				return
			}
			data, err := json.Marshal(idempotencyEntry{
				StatusCode:  rec.statusCode,
				ContentType: w.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := c.Set(r.Context(), key, data, ttl); err != nil {
				slog.Warn("idempotency: failed to store response", "key", key, "error", err)
			}
		})
	}
}

// idempotencyCacheKey scopes the client key to the route and hashes it so
// arbitrary header values make safe cache keys.
func idempotencyCacheKey(path, key string) string {
	sum := blake2b.Sum256([]byte(path + "\x00" + key))
	return idempotencyKeyPrefix + hex.EncodeToString(sum[:])
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
