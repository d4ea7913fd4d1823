package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traveleasy/session"
)

func identityServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		switch r.URL.Path {
		case "/v1/accounts:signUp":
			json.NewEncoder(w).Encode(map[string]string{
				"localId": "uid-123",
				"email":   payload["email"].(string),
				"idToken": "id-token-123",
			})
		case "/v1/accounts:signInWithPassword":
			if payload["password"].(string) != "secret1" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]map[string]string{
					"error": {"message": "INVALID_LOGIN_CREDENTIALS"},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"localId":     "uid-123",
				"email":       payload["email"].(string),
				"displayName": "Ana Lima",
				"idToken":     "id-token-456",
			})
		case "/v1/accounts:update":
			assert.Equal(t, "id-token-123", payload["idToken"])
			json.NewEncoder(w).Encode(map[string]string{"localId": "uid-123"})
		case "/v1/accounts:sendOobCode":
			assert.Equal(t, "PASSWORD_RESET", payload["requestType"])
			if payload["email"].(string) == "nobody@example.com" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]map[string]string{
					"error": {"message": "EMAIL_NOT_FOUND"},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"email": payload["email"].(string)})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	return server, &paths
}

func TestRESTIdentityProviderSignUp(t *testing.T) {
	server, paths := identityServer(t)
	defer server.Close()

	provider := session.NewRESTIdentityProvider(server.URL, "api-key")
	acct, err := provider.SignUp(context.Background(), "ana@example.com", "secret1")
	assert.NoError(t, err)
	assert.Equal(t, "uid-123", acct.UID)
	assert.Equal(t, "ana@example.com", acct.Email)
	assert.Equal(t, "id-token-123", acct.IDToken)

	// The API key rides along as a query parameter
	require.Len(t, *paths, 1)
	assert.Equal(t, "/v1/accounts:signUp?key=api-key", (*paths)[0])

	assert.NoError(t, provider.UpdateDisplayName(context.Background(), "id-token-123", "Ana Lima"))
}

func TestRESTIdentityProviderSignIn(t *testing.T) {
	server, _ := identityServer(t)
	defer server.Close()

	provider := session.NewRESTIdentityProvider(server.URL, "api-key")

	acct, err := provider.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	assert.NoError(t, err)
	assert.Equal(t, "Ana Lima", acct.DisplayName)
	assert.Equal(t, "id-token-456", acct.IDToken)

	// The service's stable message code becomes the error text
	_, err = provider.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	assert.EqualError(t, err, "INVALID_LOGIN_CREDENTIALS")
}

func TestRESTIdentityProviderSendPasswordReset(t *testing.T) {
	server, _ := identityServer(t)
	defer server.Close()

	provider := session.NewRESTIdentityProvider(server.URL, "api-key")

	assert.NoError(t, provider.SendPasswordReset(context.Background(), "ana@example.com"))

	err := provider.SendPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, session.ErrEmailNotFound)
}
