package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshBuffer is how long before expiry an access token is considered stale.
const refreshBuffer = 5 * time.Minute

// TokenProvider supplies bearer tokens for authenticated API calls.
type TokenProvider interface {
	// EnsureValidToken refreshes the access token if it is missing or about to expire.
	EnsureValidToken(ctx context.Context) error

	// AuthorizationHeader returns the value of the Authorization header for the current token.
	AuthorizationHeader() string
}

// StaticToken is a TokenProvider for a fixed access token (development and tests).
type StaticToken string

// EnsureValidToken never refreshes a static token.
func (t StaticToken) EnsureValidToken(context.Context) error {
	if t == "" {
		return fmt.Errorf("ensure token: %w: no access token configured", ErrUnauthorized)
	}
	return nil
}

// AuthorizationHeader returns "bearer <token>".
func (t StaticToken) AuthorizationHeader() string {
	return "bearer " + string(t)
}

// RefreshTokenConfig configures a RefreshTokenProvider.
type RefreshTokenConfig struct {
	HTTPClient   *http.Client
	AuthURL      string
	ClientID     string
	ClientSecret string
	RefreshToken string
	UserAgent    string
}

// RefreshTokenProvider exchanges a long-lived refresh token for short-lived access tokens.
type RefreshTokenProvider struct {
	expiresAt   time.Time
	now         func() time.Time
	cfg         RefreshTokenConfig
	accessToken string
	mu          sync.RWMutex
	refreshMu   sync.Mutex
}

// NewRefreshTokenProvider creates a token provider using the refresh_token grant.
func NewRefreshTokenProvider(cfg RefreshTokenConfig) *RefreshTokenProvider {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RefreshTokenProvider{cfg: cfg, now: time.Now}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	Error        string `json:"error"`
	ExpiresIn    int64  `json:"expires_in"`
}

// NeedsRefresh reports whether the current token is missing or expires within the refresh buffer.
func (p *RefreshTokenProvider) NeedsRefresh() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accessToken == "" || !p.now().Add(refreshBuffer).Before(p.expiresAt)
}

// EnsureValidToken refreshes the access token when needed.
// Concurrent callers wait for a single refresh.
func (p *RefreshTokenProvider) EnsureValidToken(ctx context.Context) error {
	if !p.NeedsRefresh() {
		return nil
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	// Another caller may have refreshed while we waited
	if !p.NeedsRefresh() {
		return nil
	}
	return p.refresh(ctx)
}

// AuthorizationHeader returns "bearer <token>" for the current access token.
func (p *RefreshTokenProvider) AuthorizationHeader() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return "bearer " + p.accessToken
}

func (p *RefreshTokenProvider) refresh(ctx context.Context) error {
	if p.cfg.RefreshToken == "" {
		return fmt.Errorf("refresh token: %w: refresh token is required", ErrUnauthorized)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", p.cfg.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return statusError("refresh token", resp.StatusCode, string(body))
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("refresh token: %w: %v", ErrMalformedResponse, err)
	}
	if out.Error != "" {
		return fmt.Errorf("refresh token: %w: %s", ErrUnauthorized, out.Error)
	}
	if out.AccessToken == "" {
		return fmt.Errorf("refresh token: %w: response missing access_token", ErrMalformedResponse)
	}

	expiresAt, err := p.expiry(out)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.accessToken = out.AccessToken
	p.expiresAt = expiresAt
	if out.RefreshToken != "" {
		p.cfg.RefreshToken = out.RefreshToken
	}
	p.mu.Unlock()
	return nil
}

// expiry prefers expires_in and falls back to the exp claim of a JWT access token.
func (p *RefreshTokenProvider) expiry(out tokenResponse) (time.Time, error) {
	if out.ExpiresIn > 0 {
		return p.now().Add(time.Duration(out.ExpiresIn) * time.Second), nil
	}
	exp, err := parseTokenExpiration(out.AccessToken)
	if err != nil {
		return time.Time{}, fmt.Errorf("refresh token: %w: %v", ErrMalformedResponse, err)
	}
	return exp, nil
}

// parseTokenExpiration reads the exp claim of a JWT without verifying its signature.
func parseTokenExpiration(token string) (time.Time, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "bearer "))

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, errors.New("access token has no exp claim and no expires_in")
	}
	return exp.Time, nil
}
