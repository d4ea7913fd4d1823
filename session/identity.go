package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RESTIdentityProvider talks to the hosted identity service's account
// endpoints (signUp, signInWithPassword, update, sendOobCode). The
// service is keyed by an API key passed as a query parameter; errors
// come back as {"error": {"message": "..."}} with stable message
// codes.
type RESTIdentityProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRESTIdentityProvider(baseURL, apiKey string) *RESTIdentityProvider {
	return &RESTIdentityProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *RESTIdentityProvider) SignUp(ctx context.Context, email, password string) (*Account, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Account{
		UID:     resp.LocalID,
		Email:   resp.Email,
		IDToken: resp.IDToken,
	}, nil
}

func (p *RESTIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*Account, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Account{
		UID:         resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		IDToken:     resp.IDToken,
	}, nil
}

func (p *RESTIdentityProvider) UpdateDisplayName(ctx context.Context, idToken, displayName string) error {
	return p.post(ctx, "accounts:update", map[string]interface{}{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}, nil)
}

func (p *RESTIdentityProvider) SendPasswordReset(ctx context.Context, email string) error {
	err := p.post(ctx, "accounts:sendOobCode", map[string]interface{}{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
	if err != nil && err.Error() == "EMAIL_NOT_FOUND" {
		return ErrEmailNotFound
	}
	return err
}

func (p *RESTIdentityProvider) post(ctx context.Context, action string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	url := fmt.Sprintf("%s/v1/%s?key=%s", p.baseURL, action, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request %s failed: %w", action, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", action, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%s", errResp.Error.Message)
		}
		return fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", action, err)
		}
	}
	return nil
}
