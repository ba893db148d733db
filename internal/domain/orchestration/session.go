package orchestration

import (
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/AgentForge/internal/domain/cost"
)

// ErrInvalidTransition is returned when a session status change would move
// backwards or leave a terminal state.
var ErrInvalidTransition = errors.New("invalid session status transition")

// Status is the lifecycle state of a session.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a session may move from one status to another.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPlanning:
		return to == StatusExecuting || to == StatusFailed
	case StatusExecuting:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// CheckTransition wraps ErrInvalidTransition with the offending states.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Session is the durable record of one run, keyed by ID.
type Session struct {
	ID         string          `json:"id"`
	Request    Request         `json:"request"`
	Analysis   *Analysis       `json:"analysis,omitempty"`
	Plan       *Plan           `json:"plan,omitempty"`
	Status     Status          `json:"status"`
	Executions []Execution     `json:"executions,omitempty"`
	Cost       *cost.Breakdown `json:"cost,omitempty"`
	Result     *Result         `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Patch carries the optional fields written with a status update.
type Patch struct {
	Plan   *Plan
	Result *Result
	Error  string
}

// Apply moves the session to status and copies set patch fields onto it.
func (s *Session) Apply(status Status, p Patch, now time.Time) error {
	if err := CheckTransition(s.Status, status); err != nil {
		return err
	}
	s.Status = status
	if p.Plan != nil {
		s.Plan = p.Plan
	}
	if p.Result != nil {
		s.Result = p.Result
		s.Executions = p.Result.Executions
		c := p.Result.Cost
		s.Cost = &c
	}
	if p.Error != "" {
		s.Error = p.Error
	}
	s.UpdatedAt = now
	return nil
}
