package session

import (
	"context"
	"errors"
)

// Account is what the identity service knows about a user: an opaque
// identifier, the credential e-mail, the display name and the token
// for follow-up identity-API calls.
type Account struct {
	UID         string
	Email       string
	DisplayName string
	IDToken     string
}

// ErrEmailNotFound is reported by SendPasswordReset when the identity
// service has no account for the e-mail. Callers surface it
// distinctly from other failures.
var ErrEmailNotFound = errors.New("email not registered")

// IdentityProvider is the external identity service. The production
// implementation is the REST client in this package; tests use an
// in-memory fake.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*Account, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Account, error)
	UpdateDisplayName(ctx context.Context, idToken, displayName string) error
	SendPasswordReset(ctx context.Context, email string) error
}

// Session is the authenticated user's handle for the rest of the
// flow. It is always passed explicitly; there is no ambient current
// user.
type Session struct {
	Token       string
	UID         string
	DisplayName string
	Email       string
	IDToken     string
}
