package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/AgentForge/internal/domain"
	"github.com/Strob0t/AgentForge/internal/domain/cost"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/sessionstore"
)

// Store implements sessionstore.Store using PostgreSQL. Structured session
// parts are kept in JSONB columns.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ sessionstore.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Ping checks connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const sessionColumns = `id, status, request, analysis, plan, executions, cost, result, error, created_at, updated_at`

func (s *Store) Create(ctx context.Context, sess *orchestration.Session) error {
	request, err := json.Marshal(sess.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	analysis, err := jsonColumn(sess.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	plan, err := jsonColumn(sess.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	executions, err := json.Marshal(orEmpty(sess.Executions))
	if err != nil {
		return fmt.Errorf("marshal executions: %w", err)
	}

	var deliverable string
	if sess.Analysis != nil {
		deliverable = string(sess.Analysis.DeliverableType)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, requester_id, status, request, analysis, plan, executions, error, deliverable_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sess.ID, sess.Request.RequesterID, sess.Status, request, analysis, plan, executions,
		sess.Error, deliverable, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create session %s: %w", sess.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create session %s: %w", sess.ID, err)
	}
	return nil
}

// Update locks the row, applies the transition in Go and writes the changed
// columns back in one transaction.
func (s *Store) Update(ctx context.Context, id string, status orchestration.Status, p orchestration.Patch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sess, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return notFoundWrap(err, "lock session %s", id)
	}
	if err := sess.Apply(status, p, s.now()); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}

	plan, err := jsonColumn(sess.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	executions, err := json.Marshal(orEmpty(sess.Executions))
	if err != nil {
		return fmt.Errorf("marshal executions: %w", err)
	}
	costJSON, err := jsonColumn(sess.Cost)
	if err != nil {
		return fmt.Errorf("marshal cost: %w", err)
	}
	result, err := jsonColumn(sess.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions
		 SET status = $2, plan = $3, executions = $4, cost = $5, result = $6, error = $7, updated_at = $8
		 WHERE id = $1`,
		id, sess.Status, plan, executions, costJSON, result, sess.Error, sess.UpdatedAt); err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit session %s: %w", id, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*orchestration.Session, error) {
	sess, err := scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get session %s", id)
	}
	return sess, nil
}

// ListByRequester returns a requester's most recent sessions, newest first.
func (s *Store) ListByRequester(ctx context.Context, requesterID string, limit int) ([]orchestration.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE requester_id = $1 ORDER BY created_at DESC LIMIT $2`, requesterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []orchestration.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return orEmpty(out), rows.Err()
}

// FailStale marks sessions stuck in a non-terminal status since before
// cutoff as failed. It returns the number of sessions changed.
func (s *Store) FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = 'failed', error = $2, updated_at = $3
		 WHERE status IN ('planning', 'executing') AND updated_at < $1`,
		cutoff, reason, s.now())
	if err != nil {
		return 0, fmt.Errorf("fail stale sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row scannable) (*orchestration.Session, error) {
	var (
		sess                                                  orchestration.Session
		request, analysis, plan, executions, costJSON, result []byte
	)
	if err := row.Scan(&sess.ID, &sess.Status, &request, &analysis, &plan, &executions,
		&costJSON, &result, &sess.Error, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(request, &sess.Request); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	var err error
	if sess.Analysis, err = decodeColumn[orchestration.Analysis](analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if sess.Plan, err = decodeColumn[orchestration.Plan](plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if sess.Cost, err = decodeColumn[cost.Breakdown](costJSON); err != nil {
		return nil, fmt.Errorf("decode cost: %w", err)
	}
	if sess.Result, err = decodeColumn[orchestration.Result](result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if len(executions) > 0 {
		if err := json.Unmarshal(executions, &sess.Executions); err != nil {
			return nil, fmt.Errorf("decode executions: %w", err)
		}
	}
	return &sess, nil
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

