// Package continuation provides opaque resumable bookmarks for truncated
// operations.
//
// When a chunked operation cannot return its full result under the response
// byte ceiling, it records a token holding the operation kind, the target
// path, the original parameters, and an operation-specific cursor. A later
// stateless call presents the token ID and the operation resumes from the
// cursor. Tokens are process-local; they do not survive restarts.
package continuation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsgate/fsgate/internal/shared/id"
)

// OperationKind identifies the operation family a token belongs to.
type OperationKind string

const (
	OpReadFile      OperationKind = "read_file"
	OpListDirectory OperationKind = "list_directory"
	OpSearchFiles   OperationKind = "search_files"
)

// ErrNotFound is returned when a token ID is unknown or expired.
var ErrNotFound = errors.New("continuation token not found")

// UsageError reports a caller mistake: resuming a token against a different
// operation kind or target than it was created for. This is the replay-safety
// guard; tokens are not bound to caller identity.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Token is a resumable bookmark for one truncated operation.
type Token struct {
	ID         string                 `json:"id"`
	Kind       OperationKind          `json:"operation_kind"`
	TargetKey  string                 `json:"target_key"`
	Cursor     map[string]interface{} `json:"cursor"`
	Params     map[string]interface{} `json:"parameters"`
	CreatedAt  time.Time              `json:"created_at"`
	LastAccess time.Time              `json:"last_access"`
}

// DefaultTTL bounds token lifetime; expired tokens are swept on Generate.
const DefaultTTL = 15 * time.Minute

// Store holds continuation tokens for the process lifetime.
//
// Always inject a Store instance into handlers; never share one through a
// package global. Expired tokens are evicted lazily so an idle store holds
// at most the tokens of its TTL window.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]*Token
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the default token lifetime. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source. Useful for eviction tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty token store.
func New(opts ...Option) *Store {
	s := &Store{
		tokens: make(map[string]*Token),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate creates a token with an empty cursor and returns its ID.
func (s *Store) Generate(kind OperationKind, targetKey string, params map[string]interface{}) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	tokenID := id.NewTokenID().String()
	now := s.now()
	s.tokens[tokenID] = &Token{
		ID:         tokenID,
		Kind:       kind,
		TargetKey:  targetKey,
		Cursor:     make(map[string]interface{}),
		Params:     params,
		CreatedAt:  now,
		LastAccess: now,
	}
	return tokenID
}

// Update merges cursor fields into the token, last write wins per field.
func (s *Store) Update(tokenID string, cursor map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[tokenID]
	if !ok || s.expiredLocked(tok) {
		return ErrNotFound
	}

	for k, v := range cursor {
		tok.Cursor[k] = v
	}
	tok.LastAccess = s.now()
	return nil
}

// Get returns the token for the given ID.
func (s *Store) Get(tokenID string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[tokenID]
	if !ok || s.expiredLocked(tok) {
		return nil, ErrNotFound
	}
	return tok, nil
}

// Resume fetches and validates a token for resumption. A token is only
// valid for the exact (kind, targetKey) pair it was created with; a
// mismatch is a *UsageError, never silently reinterpreted.
func (s *Store) Resume(tokenID string, kind OperationKind, targetKey string) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[tokenID]
	if !ok || s.expiredLocked(tok) {
		return nil, ErrNotFound
	}

	if tok.Kind != kind {
		return nil, &UsageError{Msg: fmt.Sprintf(
			"token %s was created for operation %q, not %q", tokenID, tok.Kind, kind)}
	}
	if tok.TargetKey != targetKey {
		return nil, &UsageError{Msg: fmt.Sprintf(
			"token %s was created for target %q, not %q", tokenID, tok.TargetKey, targetKey)}
	}

	tok.LastAccess = s.now()
	return tok, nil
}

// Delete removes a token. Removing an unknown ID is a no-op.
func (s *Store) Delete(tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenID)
}

// Len returns the number of live tokens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, tok := range s.tokens {
		if !s.expiredLocked(tok) {
			n++
		}
	}
	return n
}

func (s *Store) expiredLocked(tok *Token) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(tok.LastAccess) > s.ttl
}

func (s *Store) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	for tokenID, tok := range s.tokens {
		if s.expiredLocked(tok) {
			delete(s.tokens, tokenID)
		}
	}
}
