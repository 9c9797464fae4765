package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

const (
	DefaultSessionTTL = 24 * time.Hour

	// InMemoryDB keeps sessions for the lifetime of the process only
	InMemoryDB = ":memory:"
)

// SQLiteStore implements the SessionStore interface using SQLite
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	log logger.Logger
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite session store. Sessions expire ttl after their last save.
func NewSQLiteStore(dbPath string, ttl time.Duration, log logger.Logger) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == InMemoryDB {
		// Every connection to :memory: opens its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db, ttl: ttl, log: log, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- timestamps are unix nanoseconds
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Load retrieves the state of a live session
func (s *SQLiteStore) Load(ctx context.Context, id string) (*models.SessionState, error) {
	var stateJSON string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT state, expires_at FROM sessions WHERE id = ?
	`, id).Scan(&stateJSON, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if expiresAt <= s.now().UnixNano() {
		return nil, fmt.Errorf("%w: %s expired", ErrSessionNotFound, id)
	}

	var state models.SessionState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Save writes the state of a session and refreshes its expiry
func (s *SQLiteStore) Save(ctx context.Context, id string, state *models.SessionState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, state, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`, id, string(stateJSON), now.UnixNano(), now.UnixNano(), now.Add(s.ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.log.Debug("Deleted session %s", id)
	return nil
}

// ListExpired returns the ids of sessions that expired before now, oldest first
func (s *SQLiteStore) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM sessions WHERE expires_at <= ? ORDER BY expires_at
	`, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadAny retrieves a session's state whether or not it has expired, so its files can be purged
func (s *SQLiteStore) LoadAny(ctx context.Context, id string) (*models.SessionState, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure SQLiteStore implements SessionStore interface
var _ SessionStore = (*SQLiteStore)(nil)
