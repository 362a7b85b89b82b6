// Package sqlite stores artifacts in an in-memory SQLite database. It gives
// the same semantics as the memory driver with SQL-side indexing of the
// secondary lookup fields.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/ssop/internal/ssop/store"
	_ "modernc.org/sqlite"
)

// DefaultDSN keeps the database in process memory.
const DefaultDSN = "file::memory:"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for exp stamping and checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens dsn, pins the pool to a single connection (an in-memory
// database lives and dies with its connection) and applies migrations.
func New(dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const upsertSQL = `
INSERT INTO artifacts (key, namespace, id, uid, user_code, grant_id, exp, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    uid       = excluded.uid,
    user_code = excluded.user_code,
    grant_id  = excluded.grant_id,
    exp       = excluded.exp,
    payload   = excluded.payload`

func (s *Store) Upsert(ctx context.Context, namespace, id string, payload store.Payload, ttl time.Duration) error {
	if err := store.ValidateKey(namespace, id); err != nil {
		return err
	}
	rec, err := store.Prepare(payload, ttl, s.now())
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, upsertSQL,
		store.Key(namespace, id),
		namespace,
		id,
		nullString(rec.UID),
		nullString(rec.UserCode),
		nullString(rec.GrantID),
		nullInt64(rec.Exp),
		string(rec.Raw),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert %s: %w", namespace, err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, namespace, id string) (store.Payload, error) {
	return s.queryOne(ctx,
		`SELECT payload FROM artifacts WHERE key = ? AND (exp IS NULL OR exp > ?)`,
		store.Key(namespace, id), s.now().Unix(),
	)
}

func (s *Store) FindByUID(ctx context.Context, namespace, uid string) (store.Payload, error) {
	if uid == "" {
		return nil, store.ErrNotFound
	}
	return s.queryOne(ctx,
		`SELECT payload FROM artifacts
		 WHERE namespace = ? AND uid = ? AND (exp IS NULL OR exp > ?)
		 ORDER BY seq LIMIT 1`,
		namespace, uid, s.now().Unix(),
	)
}

func (s *Store) FindByUserCode(ctx context.Context, namespace, userCode string) (store.Payload, error) {
	if userCode == "" {
		return nil, store.ErrNotFound
	}
	return s.queryOne(ctx,
		`SELECT payload FROM artifacts
		 WHERE namespace = ? AND user_code = ? AND (exp IS NULL OR exp > ?)
		 ORDER BY seq LIMIT 1`,
		namespace, userCode, s.now().Unix(),
	)
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (store.Payload, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return store.ParsePayload([]byte(raw))
}

func (s *Store) Destroy(ctx context.Context, namespace, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE key = ?`, store.Key(namespace, id))
	return err
}

// Consume relies on DELETE ... RETURNING so the existence check and the
// removal are one statement.
func (s *Store) Consume(ctx context.Context, namespace, id string) (bool, error) {
	var exp sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM artifacts WHERE key = ? RETURNING exp`,
		store.Key(namespace, id),
	).Scan(&exp)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: consume %s: %w", namespace, err)
	}
	return !store.Expired(exp.Int64, s.now()), nil
}

func (s *Store) RevokeByGrantID(ctx context.Context, namespace, grantID string) (int, error) {
	if grantID == "" {
		return 0, nil
	}
	return s.execCount(ctx,
		`DELETE FROM artifacts WHERE namespace = ? AND grant_id = ?`,
		namespace, grantID,
	)
}

func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts`)
	return err
}

func (s *Store) DeleteExpired(ctx context.Context) (int, error) {
	return s.execCount(ctx,
		`DELETE FROM artifacts WHERE exp IS NOT NULL AND exp <= ?`,
		s.now().Unix(),
	)
}

func (s *Store) execCount(ctx context.Context, query string, args ...any) (int, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

var _ store.Store = (*Store)(nil)
