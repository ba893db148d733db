package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/cache"
)

const analysisKeyPrefix = "analysis:"

// AnalysisCache memoizes analyses for requests with identical hint,
// audience and task, the inputs of the analysis prompt.
// Cache failures are logged and treated as misses.
type AnalysisCache struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewAnalysisCache wraps c. A zero ttl defers to the backing cache.
func NewAnalysisCache(c cache.Cache, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{cache: c, ttl: ttl}
}

func analysisKey(req *orchestration.Request) string {
	h, _ := blake2b.New256(nil)
	for _, part := range []string{string(req.DeliverableHint), req.Preferences.Audience, req.Task} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return analysisKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached analysis.
func (c *AnalysisCache) Get(ctx context.Context, req *orchestration.Request) (orchestration.Analysis, bool) {
	key := analysisKey(req)
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("analysis cache get failed", "key", key, "error", err)
		return orchestration.Analysis{}, false
	}
	if !ok {
		return orchestration.Analysis{}, false
	}
	var a orchestration.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		slog.Warn("analysis cache entry corrupt", "key", key, "error", err)
		return orchestration.Analysis{}, false
	}
	return a, true
}

// Put stores an analysis. Fallback analyses are skipped so a transient
// backend failure is not remembered.
func (c *AnalysisCache) Put(ctx context.Context, req *orchestration.Request, a orchestration.Analysis) {
	if a.IsFallback() {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	key := analysisKey(req)
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		slog.Warn("analysis cache set failed", "key", key, "error", err)
	}
}
