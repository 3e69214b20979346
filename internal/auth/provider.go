package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Identity is the profile returned by the third-party auth provider
// when a login session_id is exchanged.
type Identity struct {
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Picture      *string `json:"picture,omitempty"`
	SessionToken string  `json:"session_token,omitempty"`
}

// ErrInvalidSession means the provider rejected the session_id.
var ErrInvalidSession = errors.New("invalid session_id")

// IdentityProvider is the boundary to the external auth service. Tests
// substitute a stub; production uses the HTTP implementation below.
type IdentityProvider interface {
	ExchangeSession(ctx context.Context, sessionID string) (*Identity, error)
}

// HTTPIdentityProvider exchanges session ids against the provider's
// session-data endpoint using the X-Session-ID header.
type HTTPIdentityProvider struct {
	url  string
	http *http.Client
}

func NewHTTPIdentityProvider(url string, timeout time.Duration) *HTTPIdentityProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPIdentityProvider{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPIdentityProvider) ExchangeSession(ctx context.Context, sessionID string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidSession
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(body, &id); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if id.Email == "" {
		return nil, fmt.Errorf("provider response missing email")
	}
	return &id, nil
}
