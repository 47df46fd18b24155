package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"net/http"
	"strings"
	"time"
)

// Authenticator resolves a bearer token to a caller. Issuing tokens is someone else's job.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// RemoteAuthenticator asks the auth service who owns the token via GET {BaseURL}/users/current.
type RemoteAuthenticator struct {
	BaseURL string
	Client  *http.Client
}

func NewRemoteAuthenticator(baseURL string) *RemoteAuthenticator {
	return &RemoteAuthenticator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type remoteUser struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Enabled     bool     `json:"enabled"`
}

var errInvalidToken = apperr.Unauthorized("Invalid or expired token")

func (a *RemoteAuthenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthorized("Authentication required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/users/current", nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.Client.Do(req)
	if err != nil {
		return Identity{}, apperr.Internal(fmt.Errorf("auth request failed: %w", err), "Authentication service unavailable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, errInvalidToken
	case resp.StatusCode != http.StatusOK:
		return Identity{}, apperr.Internal(fmt.Errorf("auth service status %d", resp.StatusCode), "Authentication service unavailable")
	}

	var u remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return Identity{}, apperr.Internal(err, "Authentication service unavailable")
	}
	if !u.Enabled {
		return Identity{}, apperr.Forbidden("User disabled")
	}
	if u.ID == "" {
		return Identity{}, apperr.Internal(errors.New("auth service returned no user id"), "Authentication service unavailable")
	}
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Roles: u.Permissions}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
