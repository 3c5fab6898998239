package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// DefaultGoogleIssuer is Google's OpenID Connect issuer
	DefaultGoogleIssuer = "https://accounts.google.com"

	defaultStateTTL = 10 * time.Minute
	stateAudience   = "oauth-state"
)

var (
	ErrInvalidState       = errors.New("invalid or expired OAuth state")
	ErrMissingIDToken     = errors.New("token response did not include an id_token")
	ErrEmailNotVerified   = errors.New("identity provider email is not verified")
	ErrIdentityIncomplete = errors.New("identity provider did not return an email")
)

// GoogleConfig contains the OAuth client registration for Google sign-in
type GoogleConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// StateSecret signs the OAuth state parameter
	StateSecret string
	StateTTL    time.Duration
}

// ExternalIdentity is the verified identity returned by the provider
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleProvider runs the OpenID Connect authorization code flow.
// The state parameter is a short-lived HS256 token, so no server-side
// session is needed between the redirect and the callback.
type GoogleProvider struct {
	oauth       *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	stateSecret []byte
	stateTTL    time.Duration
	now         func() time.Time
}

// NewGoogleProvider discovers the issuer's endpoints and signing keys
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultGoogleIssuer
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider %s: %w", issuer, err)
	}

	return newGoogleProvider(cfg, provider.Endpoint(), provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})), nil
}

func newGoogleProvider(cfg GoogleConfig, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier) *GoogleProvider {
	stateTTL := cfg.StateTTL
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	stateSecret := cfg.StateSecret
	if stateSecret == "" {
		stateSecret = cfg.ClientSecret
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier:    verifier,
		stateSecret: []byte(stateSecret),
		stateTTL:    stateTTL,
		now:         time.Now,
	}
}

// AuthCodeURL returns the provider consent URL with a freshly signed state
func (p *GoogleProvider) AuthCodeURL() (string, error) {
	state, err := p.signState()
	if err != nil {
		return "", err
	}
	return p.oauth.AuthCodeURL(state), nil
}

// Exchange validates the state, redeems the authorization code and
// verifies the returned ID token
func (p *GoogleProvider) Exchange(ctx context.Context, code, state string) (*ExternalIdentity, error) {
	if err := p.verifyState(state); err != nil {
		return nil, err
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrMissingIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode ID token claims: %w", err)
	}
	if claims.Email == "" {
		return nil, ErrIdentityIncomplete
	}
	if !claims.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return &ExternalIdentity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func (p *GoogleProvider) signState() (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Audience:  jwt.ClaimStrings{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.stateTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.stateSecret)
}

func (p *GoogleProvider) verifyState(state string) error {
	if state == "" {
		return ErrInvalidState
	}
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidState
		}
		return p.stateSecret, nil
	},
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return ErrInvalidState
	}
	return nil
}
