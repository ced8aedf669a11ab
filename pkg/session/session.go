// Package session persists the selection of a graph view between requests
// and process restarts.
//
// Selection trackers live in memory and own no I/O. The owning application
// stores the selected node IDs of each view as a [Session] and re-applies
// them to a fresh tracker with [Restore].
//
// Backends:
//   - memory: in-process storage for development and tests
//   - file: JSON files, used by the CLI
//   - redis: shared storage for multi-instance servers
//   - mongo: document storage alongside other application data
//
// # Usage
//
//	store, err := session.Open(ctx, session.Config{Backend: "file"})
//	sess := session.New(graphHash, session.DefaultTTL)
//	cs := tracker.SelectNode("add.3", true)
//	sess.Capture(tracker, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	// later, with a new tracker over the same graph
//	sess, err = store.Get(ctx, id)
//	if sess != nil {
//	    session.Restore(tracker, sess)
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/selgraph/pkg/selection"
)

// Sentinel errors for session operations.
var (
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown session backend")

	// ErrGraphMismatch is returned when a session is restored against a
	// graph other than the one it was captured on.
	ErrGraphMismatch = errors.New("session belongs to a different graph")
)

// DefaultTTL is the default session lifetime after its last update.
const DefaultTTL = 24 * time.Hour

// Session stores the selection of one graph view.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	Graph     string    `json:"graph" bson:"graph"` // Content hash of the graph document
	Selected  []string  `json:"selected" bson:"selected"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// New creates an empty session for the graph identified by graphHash.
func New(graphHash string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Graph:     graphHash,
		Selected:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Capture copies the tracker's selection into the session and extends its
// lifetime by ttl.
func (s *Session) Capture(t *selection.Tracker, ttl time.Duration) {
	now := time.Now().UTC()
	s.Selected = t.Selected()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Restore replaces the tracker's selection with the stored one and returns
// the resulting changeset.
func Restore(t *selection.Tracker, s *Session) selection.ChangeSet {
	return t.SelectOnlyNodes(s.Selected)
}

// RestoreChecked is Restore guarded by a graph hash comparison.
func RestoreChecked(t *selection.Tracker, s *Session, graphHash string) (selection.ChangeSet, error) {
	if s.Graph != "" && s.Graph != graphHash {
		return selection.ChangeSet{}, ErrGraphMismatch
	}
	return Restore(t, s), nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session, replacing any previous version.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (may be a no-op for backends with
	// native expiry).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
