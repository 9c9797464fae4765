package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

var (
	// ErrSessionNotFound is returned when a session was never saved or has expired
	ErrSessionNotFound = errors.New("session not found")
	// ErrObjectNotFound is returned for scratch references that do not resolve to a stored buffer
	ErrObjectNotFound = errors.New("stored object not found")
)

// Scratch holds uploaded and generated file contents under opaque references
type Scratch interface {
	// Put stores data and returns a reference that embeds a sanitised form of nameHint
	Put(ctx context.Context, data []byte, nameHint string) (string, error)

	// Get returns the bytes stored under ref
	Get(ctx context.Context, ref string) ([]byte, error)

	// Purge removes the bytes stored under ref. Purging a missing ref is not an error.
	Purge(ctx context.Context, ref string) error
}

// SessionStore persists session state between requests
type SessionStore interface {
	// Load retrieves the state of a live session
	Load(ctx context.Context, id string) (*models.SessionState, error)

	// Save writes the state of a session and pushes its expiry out by the store's TTL
	Save(ctx context.Context, id string, state *models.SessionState) error

	// LoadAny retrieves a session's state even after it has expired
	LoadAny(ctx context.Context, id string) (*models.SessionState, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// ListExpired returns the ids of sessions whose expiry is before now
	ListExpired(ctx context.Context, now time.Time) ([]string, error)

	// Close closes the database connection
	Close() error
}
