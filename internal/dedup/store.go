// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup records which document ids have been seen, in a SQLite
// table that survives restarts. A Store is owned by a single writer.
package dedup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// DBFile is the store's file name inside the output directory.
const DBFile = "pmcids.db"

// DefaultCommitInterval bounds how long inserts stay uncommitted.
const DefaultCommitInterval = 5 * time.Second

// ErrStoreWrite reports a failed insert or commit. It is fatal to a harvest.
var ErrStoreWrite = errors.New("dedup store write failed")

// Store is a persistent set of document ids. Inserts are batched into a
// transaction that is committed once CommitInterval has elapsed, on Flush,
// and on Close. It is not safe for concurrent use.
type Store struct {
	// BeforeCommit, when set, runs before every commit. A non-nil error
	// rolls the pending inserts back, so ids are only marked seen once the
	// data that goes with them is durable.
	BeforeCommit func() error

	db             *sql.DB
	tx             *sql.Tx
	insert         *sql.Stmt
	commitInterval time.Duration
	lastCommit     time.Time
	now            func() time.Time
}

// Open opens or creates the store at path.
func Open(path string, commitInterval time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pmc_ids (
			id TEXT PRIMARY KEY,
			num INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pmc_ids_num ON pmc_ids(num)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	if commitInterval < 0 {
		commitInterval = DefaultCommitInterval
	}
	return &Store{db: db, commitInterval: commitInterval, now: time.Now, lastCommit: time.Now()}, nil
}

// InsertIfNew records id and reports whether it was absent. Ids already
// present, including those from earlier runs, return false. When the commit
// interval has elapsed, inserts from earlier calls are committed before id
// is added, so a commit never covers the id being inserted.
func (s *Store) InsertIfNew(ctx context.Context, id string) (bool, error) {
	if s.tx != nil && s.now().Sub(s.lastCommit) >= s.commitInterval {
		if err := s.Flush(); err != nil {
			return false, err
		}
	}
	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return false, fmt.Errorf("%w: begin: %v", ErrStoreWrite, err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO pmc_ids (id, num) VALUES (?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("%w: prepare: %v", ErrStoreWrite, err)
		}
		s.tx, s.insert = tx, stmt
	}

	num, _ := types.NumericID(id)
	res, err := s.insert.ExecContext(ctx, id, int64(num))
	if err != nil {
		return false, fmt.Errorf("%w: insert %s: %v", ErrStoreWrite, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: insert %s: %v", ErrStoreWrite, id, err)
	}
	return n == 1, nil
}

// Forget removes a pending insert of id. It is used when the data for a new
// id could not be written.
func (s *Store) Forget(ctx context.Context, id string) error {
	if s.tx == nil {
		return nil
	}
	if _, err := s.tx.ExecContext(ctx, `DELETE FROM pmc_ids WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: forget %s: %v", ErrStoreWrite, id, err)
	}
	return nil
}

// Flush commits pending inserts.
func (s *Store) Flush() error {
	s.lastCommit = s.now()
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.insert.Close()
	s.tx, s.insert = nil, nil
	if s.BeforeCommit != nil {
		if err := s.BeforeCommit(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: before commit: %v", ErrStoreWrite, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStoreWrite, err)
	}
	return nil
}

// Count returns the number of stored ids. Pending inserts are committed first.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.Flush(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pmc_ids`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ids: %w", err)
	}
	return n, nil
}

// EachID calls fn for every stored id in ascending numeric order. Iteration
// stops at the first error fn returns.
func (s *Store) EachID(ctx context.Context, fn func(id string) error) error {
	if err := s.Flush(); err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM pmc_ids ORDER BY num, id`)
	if err != nil {
		return fmt.Errorf("listing ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning id: %w", err)
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close commits pending inserts and releases the database.
func (s *Store) Close() error {
	ferr := s.Flush()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return ferr
}
