// internal/dating/repository.go
// Match record persistence: the Repository contract and the Postgres store

package dating

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DefaultMaxAttempts bounds transactional retries when none is configured
const DefaultMaxAttempts = 5

// UpdateFunc derives the next record from the current one read inside the transaction.
// Returning a nil record skips the write.
type UpdateFunc func(cur *Match) (*Match, error)

// Repository persists match records. UpdateMatch must re-read the record inside a
// transaction and retry fn on conflict; ErrConcurrentUpdate is returned once the
// retry budget is spent.
type Repository interface {
	GetMatch(ctx context.Context, id string) (*Match, error)
	CreateMatch(ctx context.Context, match *Match) error
	UpdateMatch(ctx context.Context, id string, fn UpdateFunc) (*Match, error)
	ListUserMatches(ctx context.Context, userID string) ([]*Match, error)
	DeleteMatch(ctx context.Context, id string) error
	DeleteUserMatches(ctx context.Context, userID string) (int, error)
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func encodeMatch(m *Match) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode match %s: %w", m.ID, err)
	}
	return data, nil
}

func decodeMatch(data []byte) (*Match, error) {
	var m Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	return &m, nil
}

func attemptsOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxAttempts
	}
	return n
}

type postgresRepository struct {
	db          *sqlx.DB
	maxAttempts int
}

// NewPostgresRepository stores records as JSONB rows in the matches table
func NewPostgresRepository(db *sqlx.DB, maxAttempts int) Repository {
	return &postgresRepository{db: db, maxAttempts: attemptsOrDefault(maxAttempts)}
}

func (r *postgresRepository) GetMatch(ctx context.Context, id string) (*Match, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT record FROM matches WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(err)
	}
	return decodeMatch(raw)
}

func (r *postgresRepository) CreateMatch(ctx context.Context, match *Match) error {
	data, err := encodeMatch(match)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO matches (id, user_a, user_b, record, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, match.ID, match.UserA, match.UserB, data, match.CreatedAt, match.UpdatedAt)
	if err != nil {
		return storeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(err)
	}
	if n == 0 {
		return ErrMatchExists
	}
	return nil
}

func (r *postgresRepository) UpdateMatch(ctx context.Context, id string, fn UpdateFunc) (*Match, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.updateOnce(ctx, id, fn)
		if err == nil {
			return result, nil
		}
		if !isSerializationFailure(err) {
			return nil, err
		}
		RecordTxConflict("postgres")
	}
	return nil, ErrConcurrentUpdate
}

func (r *postgresRepository) updateOnce(ctx context.Context, id string, fn UpdateFunc) (*Match, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError(err)
	}
	defer tx.Rollback()

	var raw []byte
	if err := tx.GetContext(ctx, &raw, `SELECT record FROM matches WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(err)
	}
	cur, err := decodeMatch(raw)
	if err != nil {
		return nil, err
	}

	next, err := fn(cur.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return cur, nil
	}

	data, err := encodeMatch(next)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE matches SET record = $2, updated_at = $3 WHERE id = $1`, id, data, next.UpdatedAt); err != nil {
		return nil, storeError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeError(err)
	}
	return next, nil
}

func (r *postgresRepository) ListUserMatches(ctx context.Context, userID string) ([]*Match, error) {
	var rows [][]byte
	err := r.db.SelectContext(ctx, &rows, `SELECT record FROM matches WHERE user_a = $1 OR user_b = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, storeError(err)
	}
	matches := make([]*Match, 0, len(rows))
	for _, raw := range rows {
		m, err := decodeMatch(raw)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *postgresRepository) DeleteMatch(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id); err != nil {
		return storeError(err)
	}
	return nil
}

func (r *postgresRepository) DeleteUserMatches(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE user_a = $1 OR user_b = $1`, userID)
	if err != nil {
		return 0, storeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError(err)
	}
	return int(n), nil
}

// isSerializationFailure matches serialization_failure and deadlock_detected
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
