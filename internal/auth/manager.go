package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/jgao/tickplan/internal/credential"
)

// DefaultSafetyMargin is subtracted from the token expiry when deciding
// whether a refresh is needed, so a token cannot expire between the check
// and its use on the wire.
const DefaultSafetyMargin = 30 * time.Second

// Config holds the OAuth2 provider settings for the authorization-code grant.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Store persists the credential between runs.
type Store interface {
	Load() (*credential.Credential, error)
	Save(*credential.Credential) error
}

// Manager owns the credential lifecycle: authorization-code exchange,
// validity checks, and refresh. All access goes through a single mutex so at
// most one refresh is ever in flight; a second caller discovering an expired
// credential waits for the first refresh instead of racing it.
type Manager struct {
	oauth      *oauth2.Config
	store      Store
	margin     time.Duration
	now        func() time.Time
	httpClient *http.Client
	logger     *slog.Logger

	mu           sync.Mutex
	cred         *credential.Credential
	loaded       bool
	stale        bool
	pendingState string
}

// Option configures a Manager.
type Option func(*Manager)

// WithSafetyMargin overrides the expiry safety margin.
func WithSafetyMargin(d time.Duration) Option {
	return func(m *Manager) { m.margin = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHTTPClient sets the HTTP client used for token-endpoint calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// NewManager creates a Manager backed by the given provider config and store.
func NewManager(cfg Config, store Store, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:  store,
		margin: DefaultSafetyMargin,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BeginAuthorization builds the provider's authorization URL with a fresh
// anti-CSRF state nonce. The returned state must be echoed back by the
// provider's redirect and passed to CompleteAuthorization.
func (m *Manager) BeginAuthorization() (authURL, state string) {
	state = uuid.NewString()

	m.mu.Lock()
	m.pendingState = state
	m.mu.Unlock()

	return m.oauth.AuthCodeURL(state), state
}

// CompleteAuthorization exchanges the one-time authorization code for a
// credential and persists it. A rejected code is terminal: codes are
// single-use and short-lived, so the flow must be restarted from
// BeginAuthorization.
func (m *Manager) CompleteAuthorization(ctx context.Context, code, state string) (*credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingState != "" && state != m.pendingState {
		return nil, &Error{Reason: ReasonInvalidCode, Err: errors.New("state mismatch")}
	}

	tok, err := m.oauth.Exchange(m.httpContext(ctx), code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return nil, &Error{Reason: ReasonInvalidCode, Err: err}
		}
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	cred := m.credentialFromToken(tok, nil)
	if err := m.store.Save(cred); err != nil {
		return nil, fmt.Errorf("persist credential: %w", err)
	}

	m.cred = cred
	m.loaded = true
	m.stale = false
	m.pendingState = ""
	m.logger.Info("authorization complete", "expires_at", cred.ExpiresAt)
	return cred, nil
}

// Token returns a bearer token valid for at least the safety margin,
// refreshing first when needed. Callers must not hold the token beyond the
// duration of one request.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		cred, err := m.store.Load()
		if err != nil {
			if errors.Is(err, credential.ErrNotFound) {
				return "", &Error{Reason: ReasonReauthRequired, Err: err}
			}
			return "", fmt.Errorf("load credential: %w", err)
		}
		m.cred = cred
		m.loaded = true
	}

	if !m.stale && m.cred.Valid(m.now(), m.margin) {
		return m.cred.AccessToken, nil
	}

	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}
	return m.cred.AccessToken, nil
}

// Invalidate marks the cached credential stale so the next Token call
// refreshes it. Used when the service rejects a token the manager still
// considered valid.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()
}

// refreshLocked exchanges the refresh token for a new credential pair and
// persists it. A provider rejection transitions back to unauthenticated and
// is terminal; the stored credential is left untouched so the failure can be
// inspected.
func (m *Manager) refreshLocked(ctx context.Context) error {
	if m.cred == nil || m.cred.RefreshToken == "" {
		return &Error{Reason: ReasonReauthRequired, Err: errors.New("no refresh token")}
	}

	seed := &oauth2.Token{RefreshToken: m.cred.RefreshToken}
	tok, err := m.oauth.TokenSource(m.httpContext(ctx), seed).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			m.logger.Warn("refresh token rejected", "status", rerr.Response.StatusCode)
			return &Error{Reason: ReasonReauthRequired, Err: err}
		}
		return fmt.Errorf("refresh credential: %w", err)
	}

	cred := m.credentialFromToken(tok, m.cred)
	if err := m.store.Save(cred); err != nil {
		return fmt.Errorf("persist refreshed credential: %w", err)
	}

	m.cred = cred
	m.stale = false
	m.logger.Info("credential refreshed", "expires_at", cred.ExpiresAt)
	return nil
}

// credentialFromToken converts an oauth2 token into the stored form. The
// previous credential, when present, supplies fields the provider omitted
// from the refresh response.
func (m *Manager) credentialFromToken(tok *oauth2.Token, prev *credential.Credential) *credential.Credential {
	cred := &credential.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		cred.Scopes = strings.Fields(scope)
	}
	if prev != nil {
		if cred.RefreshToken == "" {
			cred.RefreshToken = prev.RefreshToken
		}
		if len(cred.Scopes) == 0 {
			cred.Scopes = prev.Scopes
		}
	} else if len(cred.Scopes) == 0 {
		cred.Scopes = m.oauth.Scopes
	}
	return cred
}

func (m *Manager) httpContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}
