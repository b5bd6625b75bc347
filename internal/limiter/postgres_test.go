package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var testRules = Rules{Window: 15 * time.Minute, MaxFails: 3, BlockFor: 10 * time.Minute}

func newPG(t *testing.T) (*PG, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	now := time.Unix(1_700_000_000, 0).UTC()
	l := NewPG(mock, testRules)
	l.now = func() time.Time { return now }
	return l, mock, now
}

func TestPG_Allow(t *testing.T) {
	t.Parallel()
	l, mock, now := newPG(t)
	ctx := context.Background()
	h := HashIP("1.2.3.4")

	mock.ExpectQuery(`SELECT blocked_until FROM auth_limiter`).WithArgs("ana@example.com", h).
		WillReturnError(pgx.ErrNoRows)
	ok, wait, err := l.Allow(ctx, "ana@example.com", h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, wait)

	mock.ExpectQuery(`SELECT blocked_until FROM auth_limiter`).WithArgs("ana@example.com", h).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(4 * time.Minute)))
	ok, wait, err = l.Allow(ctx, "ana@example.com", h)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 4*time.Minute, wait)

	mock.ExpectQuery(`SELECT blocked_until FROM auth_limiter`).WithArgs("ana@example.com", h).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(time.Unix(0, 0)))
	ok, _, err = l.Allow(ctx, "ana@example.com", h)
	require.NoError(t, err)
	require.True(t, ok, "epoch means not blocked")

	mock.ExpectQuery(`SELECT blocked_until FROM auth_limiter`).WithArgs("ana@example.com", h).
		WillReturnError(errors.New("db down"))
	ok, _, err = l.Allow(ctx, "ana@example.com", h)
	require.Error(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_Failure(t *testing.T) {
	t.Parallel()
	l, mock, now := newPG(t)
	ctx := context.Background()
	h := HashIP("1.2.3.4")

	mock.ExpectQuery(`(?s)INSERT INTO auth_limiter AS a .* ON CONFLICT \(email, ip_hash\) DO UPDATE .* RETURNING fail_count`).
		WithArgs("ana@example.com", h, now, testRules.MaxFails, testRules.BlockFor, testRules.Window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(2))
	blocked, d, err := l.Failure(ctx, "ana@example.com", h)
	require.NoError(t, err)
	require.False(t, blocked)
	require.Zero(t, d)

	mock.ExpectQuery(`INSERT INTO auth_limiter`).
		WithArgs("ana@example.com", h, now, testRules.MaxFails, testRules.BlockFor, testRules.Window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(3))
	blocked, d, err = l.Failure(ctx, "ana@example.com", h)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, testRules.BlockFor, d)

	mock.ExpectQuery(`INSERT INTO auth_limiter`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("boom"))
	_, _, err = l.Failure(ctx, "ana@example.com", h)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_SuccessAndPurge(t *testing.T) {
	t.Parallel()
	l, mock, now := newPG(t)
	ctx := context.Background()
	h := HashIP("1.2.3.4")

	mock.ExpectExec(`DELETE FROM auth_limiter WHERE email=\$1 AND ip_hash=\$2`).WithArgs("ana@example.com", h).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, l.Success(ctx, "ana@example.com", h))

	mock.ExpectExec(`DELETE FROM auth_limiter WHERE blocked_until < \$1 AND updated_at < \$2`).
		WithArgs(now, now.Add(-time.Hour)).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))
	n, err := l.Purge(ctx, time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 7, n)

	mock.ExpectExec(`DELETE FROM auth_limiter WHERE email`).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("boom"))
	require.Error(t, l.Success(ctx, "ana@example.com", h))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory_Purge(t *testing.T) {
	t.Parallel()
	l := NewMemory(time.Minute, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, _ = l.Failure(ctx, "a@example.com", HashIP("x"))
	now = now.Add(30 * time.Second)
	n, err := l.Purge(ctx, 10*time.Second)
	require.NoError(t, err)
	require.Zero(t, n, "blocked entries are kept")

	now = now.Add(2 * time.Minute)
	n, err = l.Purge(ctx, 10*time.Second)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestHashIP(t *testing.T) {
	t.Parallel()
	a := HashIP("1.2.3.4:123")
	require.Equal(t, a, HashIP("1.2.3.4:123"))
	require.NotEqual(t, a, HashIP("5.6.7.8:321"))
	require.Len(t, a, 32)
	require.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}
