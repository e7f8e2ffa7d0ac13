// Package history persists every submitted solve: the raw input, what the
// normalizer made of it and what the backend answered.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
)

// Entry is one recorded solve
type Entry struct {
	ID                string        `json:"id" yaml:"id"`
	Source            string        `json:"source" yaml:"source"` // tui, cli, api
	Input             string        `json:"input" yaml:"input"`
	Canonical         string        `json:"canonical" yaml:"canonical"`
	InitialConditions string        `json:"initial_conditions,omitempty" yaml:"initial_conditions,omitempty"`
	Explanation       string        `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	LaTeX             string        `json:"latex,omitempty" yaml:"latex,omitempty"`
	Error             string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode         string        `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Duration          time.Duration `json:"duration" yaml:"duration"`
	CreatedAt         time.Time     `json:"created_at" yaml:"created_at"`
}

// Failed reports whether the solve ended with an error
func (e *Entry) Failed() bool { return e.Error != "" }

// Stats summarizes the store
type Stats struct {
	Total         int64            `json:"total" yaml:"total"`
	Solved        int64            `json:"solved" yaml:"solved"`
	Failed        int64            `json:"failed" yaml:"failed"`
	AvgDurationMs float64          `json:"avg_duration_ms" yaml:"avg_duration_ms"`
	ByErrorCode   map[string]int64 `json:"by_error_code,omitempty" yaml:"by_error_code,omitempty"`
}

// Store defines solve history persistence
type Store interface {
	Record(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, limit, offset int) ([]*Entry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Statistics(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates) the history database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS solves (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		input TEXT NOT NULL,
		canonical TEXT NOT NULL,
		initial_conditions TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		latex TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		error_code TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_solves_created ON solves(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores a new entry, assigning ID and CreatedAt when unset
func (s *SQLiteStore) Record(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(e)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO solves (id, source, input, canonical, initial_conditions, explanation,
			latex, error, error_code, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Source, e.Input, e.Canonical, e.InitialConditions, e.Explanation,
		e.LaTeX, e.Error, e.ErrorCode, e.Duration.Milliseconds(), e.CreatedAt)
	if err != nil {
		return storageError(err, "failed to record solve")
	}
	return nil
}

const selectColumns = `SELECT id, source, input, canonical, initial_conditions, explanation,
	latex, error, error_code, duration_ms, created_at FROM solves`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var durationMs int64
	err := row.Scan(&e.ID, &e.Source, &e.Input, &e.Canonical, &e.InitialConditions,
		&e.Explanation, &e.LaTeX, &e.Error, &e.ErrorCode, &durationMs, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Duration = time.Duration(durationMs) * time.Millisecond
	return &e, nil
}

// Get retrieves an entry by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := scanEntry(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound(id)
		}
		return nil, storageError(err, "failed to get solve")
	}
	return e, nil
}

// List returns entries newest first
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, storageError(err, "failed to list solves")
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storageError(err, "failed to scan solve")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes an entry
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM solves WHERE id = ?`, id)
	if err != nil {
		return storageError(err, "failed to delete solve")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

// Clear removes all entries
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM solves`); err != nil {
		return storageError(err, "failed to clear history")
	}
	return nil
}

// Statistics returns aggregate numbers over all entries
func (s *SQLiteStore) Statistics(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByErrorCode: make(map[string]int64)}

	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN error = '' THEN 0 ELSE 1 END), 0), AVG(duration_ms)
		FROM solves
	`).Scan(&stats.Total, &stats.Failed, &avg)
	if err != nil {
		return nil, storageError(err, "failed to compute statistics")
	}
	stats.Solved = stats.Total - stats.Failed
	if avg.Valid {
		stats.AvgDurationMs = avg.Float64
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT error_code, COUNT(*) FROM solves WHERE error_code != '' GROUP BY error_code
	`)
	if err != nil {
		return nil, storageError(err, "failed to compute statistics")
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var n int64
		if err := rows.Scan(&code, &n); err != nil {
			return nil, storageError(err, "failed to scan statistics")
		}
		stats.ByErrorCode[code] = n
	}

	return stats, rows.Err()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore is an in-memory implementation for testing and for running
// with history disabled on disk
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Record(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepare(e)
	cp := *e
	m.entries[e.ID] = &cp
	m.order = append(m.order, e.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var out []*Entry
	for i := len(m.order) - 1 - max(offset, 0); i >= 0 && len(out) < limit; i-- {
		cp := *m.entries[m.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return notFound(id)
	}
	delete(m.entries, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry)
	m.order = nil
	return nil
}

func (m *MemoryStore) Statistics(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{ByErrorCode: make(map[string]int64)}
	var totalMs int64
	for _, e := range m.entries {
		stats.Total++
		totalMs += e.Duration.Milliseconds()
		if e.Failed() {
			stats.Failed++
		}
		if e.ErrorCode != "" {
			stats.ByErrorCode[e.ErrorCode]++
		}
	}
	stats.Solved = stats.Total - stats.Failed
	if stats.Total > 0 {
		stats.AvgDurationMs = float64(totalMs) / float64(stats.Total)
	}
	return stats, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func prepare(e *Entry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
}

func notFound(id string) error {
	return dglerrors.Newf("solve %s not found", id).
		WithCode(dglerrors.CodeNotFound).
		WithDetail("id", id)
}

func storageError(err error, msg string) error {
	return dglerrors.Wrap(err, msg).WithCode(dglerrors.CodeStorageError)
}
