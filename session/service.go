package session

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"traveleasy/apperr"
	db "traveleasy/db/db"
)

// emailPattern is the original application's loose text@text.text check.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Service wraps registration, login, logout and password reset against
// the identity service. Every check below runs before any remote call;
// a validation failure never reaches the network.
type Service struct {
	identity IdentityProvider
	store    db.TripDBWrapper
	registry *Registry
}

func NewService(identity IdentityProvider, store db.TripDBWrapper, registry *Registry) *Service {
	return &Service{
		identity: identity,
		store:    store,
		registry: registry,
	}
}

// Register creates the identity record, sets its display name and
// writes the denormalized usuarios profile, then opens a session.
func (s *Service) Register(ctx context.Context, fullName, phone, email, password, confirm string) (*Session, error) {
	if strings.TrimSpace(fullName) == "" {
		return nil, apperr.Validation("Por favor, preencha o Nome Completo.")
	}
	if strings.TrimSpace(phone) == "" || len(phone) < 10 {
		return nil, apperr.Validation("Por favor, insira um número de celular válido.")
	}
	if strings.TrimSpace(email) == "" || !emailPattern.MatchString(email) {
		return nil, apperr.Validation("Por favor, insira um e-mail válido.")
	}
	if len(password) < 6 {
		return nil, apperr.Validation("A senha deve ter pelo menos 6 caracteres.")
	}
	if password != confirm {
		return nil, apperr.Validation("As senhas não coincidem.")
	}

	acct, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, apperr.Remote("Erro ao registrar usuário: "+err.Error(), err)
	}

	if err := s.identity.UpdateDisplayName(ctx, acct.IDToken, fullName); err != nil {
		return nil, apperr.Remote("Erro ao registrar usuário: "+err.Error(), err)
	}
	acct.DisplayName = fullName

	if err := s.store.CreateProfile(&db.Profile{
		UID:      acct.UID,
		FullName: fullName,
		Phone:    phone,
		Email:    email,
	}); err != nil {
		return nil, apperr.Remote("Erro ao registrar usuário: "+err.Error(), err)
	}

	return s.registry.Create(acct), nil
}

// Login authenticates the credential pair and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || !emailPattern.MatchString(email) {
		return nil, apperr.Validation("Por favor, insira um e-mail válido.")
	}
	if len(password) < 6 {
		return nil, apperr.Validation("A senha deve ter pelo menos 6 caracteres.")
	}

	acct, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, apperr.Remote("Erro ao fazer login: "+err.Error(), err)
	}

	return s.registry.Create(acct), nil
}

// Logout invalidates the session token.
func (s *Service) Logout(token string) {
	s.registry.Delete(token)
}

// RequestPasswordReset asks the identity service to send the reset
// e-mail, reporting an unknown address distinctly.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("Por favor, insira um e-mail")
	}

	err := s.identity.SendPasswordReset(ctx, email)
	if errors.Is(err, ErrEmailNotFound) {
		return apperr.NotFound("E-mail não registrado")
	}
	if err != nil {
		return apperr.Remote("Erro ao enviar e-mail: "+err.Error(), err)
	}
	return nil
}
