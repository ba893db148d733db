package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/AgentForge/internal/adapter/memory"
	"github.com/Strob0t/AgentForge/internal/domain"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

func newSession(id string) *orchestration.Session {
	now := time.Now()
	return &orchestration.Session{
		ID:        id,
		Request:   orchestration.Request{RequesterID: "u1", Task: "Write an essay about rivers"},
		Status:    orchestration.StatusPlanning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSessionStore()

	if err := s.Create(ctx, newSession("s1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	plan := &orchestration.Plan{ID: "p1", TotalAgents: 1}
	if err := s.Update(ctx, "s1", orchestration.StatusExecuting, orchestration.Patch{Plan: plan}); err != nil {
		t.Fatalf("Update executing: %v", err)
	}
	out := "done"
	res := &orchestration.Result{
		Success:    true,
		SessionID:  "s1",
		Executions: []orchestration.Execution{{ID: "a.b", Output: &out, Success: true, Cost: 0.5}},
	}
	res.Cost.Total = 0.5
	if err := s.Update(ctx, "s1", orchestration.StatusCompleted, orchestration.Patch{Result: res}); err != nil {
		t.Fatalf("Update completed: %v", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != orchestration.StatusCompleted || got.Plan == nil || got.Plan.ID != "p1" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if len(got.Executions) != 1 || got.Cost == nil || got.Cost.Total != 0.5 {
		t.Fatalf("result not applied: executions=%d cost=%v", len(got.Executions), got.Cost)
	}
}

func TestTerminalSessionRejectsTransition(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSessionStore()
	_ = s.Create(ctx, newSession("s1"))
	_ = s.Update(ctx, "s1", orchestration.StatusFailed, orchestration.Patch{Error: "boom"})

	err := s.Update(ctx, "s1", orchestration.StatusExecuting, orchestration.Patch{})
	if !errors.Is(err, orchestration.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	got, _ := s.Get(ctx, "s1")
	if got.Status != orchestration.StatusFailed || got.Error != "boom" {
		t.Fatalf("failed session changed: %+v", got)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := memory.NewSessionStore().Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSessionStore()
	_ = s.Create(ctx, newSession("s1"))
	if err := s.Create(ctx, newSession("s1")); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSessionStore()
	_ = s.Create(ctx, newSession("s1"))

	got, _ := s.Get(ctx, "s1")
	got.Status = orchestration.StatusCompleted

	again, _ := s.Get(ctx, "s1")
	if again.Status != orchestration.StatusPlanning {
		t.Fatal("mutating a returned session changed the store")
	}
}
