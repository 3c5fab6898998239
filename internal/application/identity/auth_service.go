package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	// ErrDemoLoginDisabled is returned when email-only login is turned off
	ErrDemoLoginDisabled = shared.NewDomainError(shared.CodeForbidden, "Demo login is disabled")
	// ErrGoogleNotConfigured is returned when no OIDC client is registered
	ErrGoogleNotConfigured = shared.NewDomainError(shared.CodePrecondition, "Google sign-in is not configured")
	// ErrSignInFailed hides provider details from the caller
	ErrSignInFailed = shared.NewDomainError(shared.CodeUnauthorized, "Sign-in failed")
)

// TokenIssuer signs session tokens
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email string) (*auth.AccessToken, error)
}

// ExternalAuthenticator runs an OpenID Connect login
type ExternalAuthenticator interface {
	AuthCodeURL() (string, error)
	Exchange(ctx context.Context, code, state string) (*auth.ExternalIdentity, error)
}

// AuthService signs users in. Accounts are created on first sign-in.
type AuthService struct {
	userRepo    identity.UserRepository
	tokens      TokenIssuer
	google      ExternalAuthenticator
	demoEnabled bool
	logger      *zap.Logger
}

// AuthServiceConfig contains configuration for AuthService
type AuthServiceConfig struct {
	UserRepo identity.UserRepository
	Tokens   TokenIssuer
	// Google is nil when OIDC login is not configured
	Google           ExternalAuthenticator
	DemoLoginEnabled bool
	Logger           *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:    cfg.UserRepo,
		tokens:      cfg.Tokens,
		google:      cfg.Google,
		demoEnabled: cfg.DemoLoginEnabled,
		logger:      logger,
	}
}

// DemoLogin finds or creates the user with the given email and signs them in
func (s *AuthService) DemoLogin(ctx context.Context, req DemoLoginRequest) (*LoginResponse, error) {
	if !s.demoEnabled {
		return nil, ErrDemoLoginDisabled
	}

	user, created, err := s.findOrCreate(ctx, req.Email, req.Name, "")
	if err != nil {
		return nil, err
	}
	return s.issue(user, created)
}

// GoogleAuthURL returns the consent URL that starts the OIDC flow
func (s *AuthService) GoogleAuthURL() (*GoogleAuthURLResponse, error) {
	if s.google == nil {
		return nil, ErrGoogleNotConfigured
	}
	url, err := s.google.AuthCodeURL()
	if err != nil {
		return nil, fmt.Errorf("failed to build Google sign-in URL: %w", err)
	}
	return &GoogleAuthURLResponse{URL: url}, nil
}

// GoogleCallback completes the OIDC flow and signs the user in
func (s *AuthService) GoogleCallback(ctx context.Context, req GoogleCallbackRequest) (*LoginResponse, error) {
	if s.google == nil {
		return nil, ErrGoogleNotConfigured
	}

	ext, err := s.google.Exchange(ctx, req.Code, req.State)
	if err != nil {
		s.logger.Warn("Google sign-in rejected", zap.Error(err))
		if errors.Is(err, auth.ErrInvalidState) {
			return nil, shared.NewValidationError("Sign-in session expired. Please try again.")
		}
		return nil, ErrSignInFailed
	}

	user, created, err := s.findOrCreate(ctx, ext.Email, ext.Name, ext.Picture)
	if err != nil {
		return nil, err
	}
	return s.issue(user, created)
}

func (s *AuthService) findOrCreate(ctx context.Context, email, name, image string) (*identity.User, bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		if image != "" && user.Image != image {
			user.SetImage(image)
			if err := s.userRepo.Save(ctx, user); err != nil {
				s.logger.Warn("Failed to refresh user image", zap.String("user_id", user.ID.String()), zap.Error(err))
			}
		}
		return user, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	user, err = identity.NewUser(email, name)
	if err != nil {
		return nil, false, err
	}
	if image != "" {
		user.SetImage(image)
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created on first sign-in",
		zap.String("user_id", user.ID.String()))
	return user, true, nil
}

func (s *AuthService) issue(user *identity.User, created bool) (*LoginResponse, error) {
	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	s.logger.Info("User signed in", zap.String("user_id", user.ID.String()))

	return &LoginResponse{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        ToUserResponse(user, user.Tier()),
		Created:     created,
	}, nil
}
