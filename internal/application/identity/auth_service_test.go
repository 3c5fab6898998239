package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testToken() *auth.AccessToken {
	return &auth.AccessToken{Token: "signed", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}
}

func TestAuthService_DemoLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user on first sign-in", func(t *testing.T) {
		repo := new(MockUserRepository)
		tokens := new(MockTokenIssuer)
		repo.On("FindByEmail", ctx, "new@studio.test").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.MatchedBy(func(u *identity.User) bool {
			return u.Email == "new@studio.test" && u.Name == "new"
		})).Return(nil)
		tokens.On("GenerateAccessToken", mock.AnythingOfType("uuid.UUID"), "new@studio.test").Return(testToken(), nil)

		svc := NewAuthService(AuthServiceConfig{UserRepo: repo, Tokens: tokens, DemoLoginEnabled: true})
		resp, err := svc.DemoLogin(ctx, DemoLoginRequest{Email: "new@studio.test"})

		require.NoError(t, err)
		assert.True(t, resp.Created)
		assert.Equal(t, "signed", resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "new", resp.User.Name)
		assert.Equal(t, identity.TierFree, resp.User.Tier)
		repo.AssertExpectations(t)
	})

	t.Run("signs in existing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		tokens := new(MockTokenIssuer)
		user, err := identity.NewUser("owner@studio.test", "Owner")
		require.NoError(t, err)
		user.StripePriceID = "price_pro"

		repo.On("FindByEmail", ctx, "owner@studio.test").Return(user, nil)
		tokens.On("GenerateAccessToken", user.ID, user.Email).Return(testToken(), nil)

		svc := NewAuthService(AuthServiceConfig{UserRepo: repo, Tokens: tokens, DemoLoginEnabled: true})
		resp, err := svc.DemoLogin(ctx, DemoLoginRequest{Email: "owner@studio.test"})

		require.NoError(t, err)
		assert.False(t, resp.Created)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.Equal(t, identity.TierPro, resp.User.Tier)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("disabled", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(AuthServiceConfig{UserRepo: repo, Tokens: new(MockTokenIssuer)})

		_, err := svc.DemoLogin(ctx, DemoLoginRequest{Email: "a@b.test"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", ctx, "a@b.test").Return(nil, errors.New("db down"))

		svc := NewAuthService(AuthServiceConfig{UserRepo: repo, Tokens: new(MockTokenIssuer), DemoLoginEnabled: true})
		_, err := svc.DemoLogin(ctx, DemoLoginRequest{Email: "a@b.test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find user")
	})
}

func TestAuthService_Google(t *testing.T) {
	ctx := context.Background()

	t.Run("auth URL", func(t *testing.T) {
		google := new(MockExternalAuthenticator)
		google.On("AuthCodeURL").Return("https://accounts.test/auth?state=s", nil)

		svc := NewAuthService(AuthServiceConfig{UserRepo: new(MockUserRepository), Tokens: new(MockTokenIssuer), Google: google})
		resp, err := svc.GoogleAuthURL()

		require.NoError(t, err)
		assert.Equal(t, "https://accounts.test/auth?state=s", resp.URL)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewAuthService(AuthServiceConfig{UserRepo: new(MockUserRepository), Tokens: new(MockTokenIssuer)})

		_, err := svc.GoogleAuthURL()
		assert.ErrorIs(t, err, shared.ErrPrecondition)

		_, err = svc.GoogleCallback(ctx, GoogleCallbackRequest{Code: "c", State: "s"})
		assert.ErrorIs(t, err, shared.ErrPrecondition)
	})

	t.Run("callback creates user with profile picture", func(t *testing.T) {
		repo := new(MockUserRepository)
		tokens := new(MockTokenIssuer)
		google := new(MockExternalAuthenticator)
		google.On("Exchange", ctx, "code", "state").Return(&auth.ExternalIdentity{
			Subject: "g-1",
			Email:   "owner@studio.test",
			Name:    "Studio Owner",
			Picture: "https://images.test/p.png",
		}, nil)
		repo.On("FindByEmail", ctx, "owner@studio.test").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.MatchedBy(func(u *identity.User) bool {
			return u.Name == "Studio Owner" && u.Image == "https://images.test/p.png"
		})).Return(nil)
		tokens.On("GenerateAccessToken", mock.AnythingOfType("uuid.UUID"), "owner@studio.test").Return(testToken(), nil)

		svc := NewAuthService(AuthServiceConfig{UserRepo: repo, Tokens: tokens, Google: google})
		resp, err := svc.GoogleCallback(ctx, GoogleCallbackRequest{Code: "code", State: "state"})

		require.NoError(t, err)
		assert.True(t, resp.Created)
		assert.Equal(t, "https://images.test/p.png", resp.User.Image)
	})

	t.Run("expired state is a validation error", func(t *testing.T) {
		google := new(MockExternalAuthenticator)
		google.On("Exchange", ctx, "code", "old").Return(nil, auth.ErrInvalidState)

		svc := NewAuthService(AuthServiceConfig{UserRepo: new(MockUserRepository), Tokens: new(MockTokenIssuer), Google: google})
		_, err := svc.GoogleCallback(ctx, GoogleCallbackRequest{Code: "code", State: "old"})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("provider failure is unauthorized", func(t *testing.T) {
		google := new(MockExternalAuthenticator)
		google.On("Exchange", ctx, "code", "state").Return(nil, auth.ErrEmailNotVerified)

		svc := NewAuthService(AuthServiceConfig{UserRepo: new(MockUserRepository), Tokens: new(MockTokenIssuer), Google: google})
		_, err := svc.GoogleCallback(ctx, GoogleCallbackRequest{Code: "code", State: "state"})

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestAuthService_TokenFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	tokens := new(MockTokenIssuer)
	user, err := identity.NewUser("owner@studio.test", "")
	require.NoError(t, err)

	repo.On("FindByEmail", ctx, "owner@studio.test").Return(user, nil)
	tokens.On("GenerateAccessToken", user.ID, user.Email).Return(nil, errors.New("no key"))

	svc := NewAuthService(AuthServiceConfig{UserRepo: repo, Tokens: tokens, DemoLoginEnabled: true})
	_, err = svc.DemoLogin(ctx, DemoLoginRequest{Email: "owner@studio.test"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrUnauthorized)
}
