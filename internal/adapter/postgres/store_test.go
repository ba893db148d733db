package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/AgentForge/internal/adapter/postgres"
	"github.com/Strob0t/AgentForge/internal/domain"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// setupStore runs all migrations against DATABASE_URL and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}
	ctx := context.Background()

	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return postgres.NewStore(pool)
}

func newSession(requester string) *orchestration.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &orchestration.Session{
		ID: uuid.NewString(),
		Request: orchestration.Request{
			RequesterID: requester,
			Task:        "Write an essay on courage",
		},
		Analysis: &orchestration.Analysis{
			DeliverableType: orchestration.DeliverableEssay,
			Complexity:      agent.ComplexitySimple,
		},
		Status:    orchestration.StatusPlanning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	sess := newSession("u-" + uuid.NewString()[:8])

	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	plan := &orchestration.Plan{
		Phases: []orchestration.Phase{{
			ID: "phase-1", Name: "research",
			Tasks: []orchestration.Task{{ID: "t1", AgentID: "research-specialist", Text: "Research courage"}},
		}},
		TotalAgents: 1,
	}
	if err := store.Update(ctx, sess.ID, orchestration.StatusExecuting, orchestration.Patch{Plan: plan}); err != nil {
		t.Fatalf("update executing: %v", err)
	}

	out := "notes"
	result := &orchestration.Result{
		Success:         true,
		SessionID:       sess.ID,
		DeliverableType: orchestration.DeliverableEssay,
		Executions: []orchestration.Execution{{
			ID: "t1", AgentID: "research-specialist", ModelID: "gemini-2.5-flash",
			PhaseName: "research", Output: &out, Success: true, Tokens: 10, Cost: 0.001,
		}},
	}
	if err := store.Update(ctx, sess.ID, orchestration.StatusCompleted, orchestration.Patch{Result: result}); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != orchestration.StatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if got.Plan == nil || got.Plan.TotalAgents != 1 {
		t.Fatalf("plan = %+v", got.Plan)
	}
	if len(got.Executions) != 1 || got.Executions[0].Text() != "notes" {
		t.Fatalf("executions = %+v", got.Executions)
	}
	if got.Result == nil || !got.Result.Success {
		t.Fatalf("result = %+v", got.Result)
	}
	if got.Request.Task != sess.Request.Task || got.Analysis.DeliverableType != orchestration.DeliverableEssay {
		t.Fatalf("request/analysis not round-tripped: %+v", got)
	}
}

func TestUpdateRejectsTerminalTransition(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	sess := newSession("u-terminal")

	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Update(ctx, sess.ID, orchestration.StatusFailed, orchestration.Patch{Error: "boom"}); err != nil {
		t.Fatalf("fail: %v", err)
	}
	err := store.Update(ctx, sess.ID, orchestration.StatusExecuting, orchestration.Patch{})
	if !errors.Is(err, orchestration.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != orchestration.StatusFailed || got.Error != "boom" {
		t.Fatalf("session changed after rejected update: %+v", got)
	}
}

func TestUnknownAndDuplicateSessions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get err = %v, want ErrNotFound", err)
	}
	if err := store.Update(ctx, uuid.NewString(), orchestration.StatusExecuting, orchestration.Patch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update err = %v, want ErrNotFound", err)
	}

	sess := newSession("u-dup")
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, sess); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
}

func TestListByRequesterAndFailStale(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	requester := "u-" + uuid.NewString()[:8]

	old := newSession(requester)
	old.CreatedAt = old.CreatedAt.Add(-2 * time.Hour)
	old.UpdatedAt = old.CreatedAt
	if err := store.Create(ctx, old); err != nil {
		t.Fatalf("create old: %v", err)
	}
	fresh := newSession(requester)
	if err := store.Create(ctx, fresh); err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	list, err := store.ListByRequester(ctx, requester, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != fresh.ID {
		t.Fatalf("list = %d sessions, first %q", len(list), list[0].ID)
	}

	if _, err := store.FailStale(ctx, time.Now().Add(-time.Hour), "abandoned"); err != nil {
		t.Fatalf("fail stale: %v", err)
	}
	got, err := store.Get(ctx, old.ID)
	if err != nil {
		t.Fatalf("get old: %v", err)
	}
	if got.Status != orchestration.StatusFailed || got.Error != "abandoned" {
		t.Fatalf("old session = %s %q", got.Status, got.Error)
	}
	if got, _ := store.Get(ctx, fresh.ID); got.Status != orchestration.StatusPlanning {
		t.Fatalf("fresh session status = %s", got.Status)
	}
}
