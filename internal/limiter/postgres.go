package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps sign-in attempts in the auth_limiter table so lockouts hold across
// server instances.
type PG struct {
	q     Querier
	rules Rules
	now   func() time.Time
}

var (
	_ Limiter = (*PG)(nil)
	_ Purger  = (*PG)(nil)
)

// NewPG returns a limiter over q, typically a *pgxpool.Pool.
func NewPG(q Querier, rules Rules) *PG {
	return &PG{q: q, rules: rules, now: time.Now}
}

func (l *PG) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_limiter WHERE email=$1 AND ip_hash=$2`
	var until time.Time
	err := l.q.QueryRow(ctx, q, email, ipHash).Scan(&until)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if now := l.now(); until.After(now) {
		return false, until.Sub(now), nil
	}
	return true, 0, nil
}

func (l *PG) Success(ctx context.Context, email string, ipHash []byte) error {
	_, err := l.q.Exec(ctx, `DELETE FROM auth_limiter WHERE email=$1 AND ip_hash=$2`, email, ipHash)
	return err
}

// Failure counts the attempt and, on reaching MaxFails, sets blocked_until in
// the same statement. A count older than Window restarts at 1.
func (l *PG) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO auth_limiter AS a (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1,
  CASE WHEN $4::int = 1 THEN $3::timestamptz + $5::interval ELSE 'epoch' END,
  $3::timestamptz)
ON CONFLICT (email, ip_hash) DO UPDATE SET
  fail_count = CASE WHEN $3::timestamptz - a.updated_at > $6::interval THEN 1 ELSE a.fail_count + 1 END,
  blocked_until = CASE
    WHEN $4::int > 0
     AND (CASE WHEN $3::timestamptz - a.updated_at > $6::interval THEN 1 ELSE a.fail_count + 1 END) >= $4::int
    THEN $3::timestamptz + $5::interval
    ELSE a.blocked_until END,
  updated_at = $3::timestamptz
RETURNING fail_count`
	var fails int
	err := l.q.QueryRow(ctx, q, email, ipHash, l.now(), l.rules.MaxFails, l.rules.BlockFor, l.rules.Window).Scan(&fails)
	if err != nil {
		return false, 0, err
	}
	if l.rules.blocks(fails) {
		return true, l.rules.BlockFor, nil
	}
	return false, 0, nil
}

// Purge deletes rows that are neither blocked nor touched within idle.
func (l *PG) Purge(ctx context.Context, idle time.Duration) (int64, error) {
	now := l.now()
	tag, err := l.q.Exec(ctx,
		`DELETE FROM auth_limiter WHERE blocked_until < $1 AND updated_at < $2`,
		now, now.Add(-idle))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
