package session

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds the live sessions of this process, keyed by the
// opaque bearer token handed to the client at login. It replaces the
// original application's ambient current-user singleton: whoever needs
// the user gets the Session handed to them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Create issues a new session for the account and returns it.
func (r *Registry) Create(acct *Account) *Session {
	sess := &Session{
		Token:       uuid.NewString(),
		UID:         acct.UID,
		DisplayName: acct.DisplayName,
		Email:       acct.Email,
		IDToken:     acct.IDToken,
	}

	r.mu.Lock()
	r.sessions[sess.Token] = sess
	r.mu.Unlock()
	return sess
}

// Get resolves a bearer token. The second return is false for unknown
// or already-invalidated tokens.
func (r *Registry) Get(token string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[token]
	return sess, ok
}

// Delete invalidates a session. Deleting an unknown token is a no-op.
func (r *Registry) Delete(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}
