package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string // Kind of authenticated principal

const (
	KindRecycler    Kind = "recycler"
	KindCoordinator Kind = "coordinator"
)

// ErrNotFound is returned when a token has no live session, either because it
// was never issued or because it expired.
var ErrNotFound = errors.New("session not found")

// Principal identifies the authenticated account behind a request.
type Principal struct {
	Kind Kind
	ID   int
}

// Store persists sessions keyed by token with a TTL.
type Store interface {
	Save(ctx context.Context, token string, p Principal, ttl time.Duration) error
	Load(ctx context.Context, token string) (Principal, error)
	Delete(ctx context.Context, token string) error
}

// Manager issues and resolves opaque bearer tokens.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Create issues a new token for the principal and saves the session.
func (m *Manager) Create(ctx context.Context, kind Kind, id int) (string, error) {
	token := uuid.NewString()
	if err := m.store.Save(ctx, token, Principal{Kind: kind, ID: id}, m.ttl); err != nil {
		return "", fmt.Errorf("can't save session: %w", err)
	}
	return token, nil
}

// Resolve returns the principal bound to the token, or ErrNotFound.
func (m *Manager) Resolve(ctx context.Context, token string) (Principal, error) {
	return m.store.Load(ctx, token)
}

// Destroy deletes the session for the token. Destroying an unknown token is
// not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	return m.store.Delete(ctx, token)
}

// encodePrincipal serializes a principal as "kind:id" for storage.
func encodePrincipal(p Principal) string {
	return string(p.Kind) + ":" + strconv.Itoa(p.ID)
}

// decodePrincipal parses the "kind:id" storage format.
func decodePrincipal(s string) (Principal, error) {
	kind, idStr, ok := strings.Cut(s, ":")
	if !ok {
		return Principal{}, fmt.Errorf("malformed session value %q", s)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return Principal{}, fmt.Errorf("can't parse principal id: %w", err)
	}

	k := Kind(kind)
	if k != KindRecycler && k != KindCoordinator {
		return Principal{}, fmt.Errorf("unknown principal kind %q", kind)
	}

	return Principal{Kind: k, ID: id}, nil
}
