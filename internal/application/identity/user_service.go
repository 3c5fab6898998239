package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// TierSource resolves the billing tier of a user
type TierSource interface {
	Resolve(ctx context.Context, userID uuid.UUID) (identity.Tier, error)
}

// UserService serves the current user's profile and business settings
type UserService struct {
	userRepo identity.UserRepository
	tiers    TierSource
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, tiers TierSource, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo: userRepo,
		tiers:    tiers,
		logger:   logger,
	}
}

// Me returns the signed-in user with the tier currently in effect
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier, err := s.tiers.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user, tier)
	return &response, nil
}

// GetSettings returns the user's business profile
func (s *UserService) GetSettings(ctx context.Context, userID uuid.UUID) (*SettingsResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToSettingsResponse(user.Profile)
	return &response, nil
}

// UpdateSettings applies a partial business profile update
func (s *UserService) UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(identity.ProfileUpdate{
		BusinessName:    req.BusinessName,
		BusinessAddress: req.BusinessAddress,
		BusinessEmail:   req.BusinessEmail,
		BusinessPhone:   req.BusinessPhone,
		BusinessLogo:    req.BusinessLogo,
	}); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info("Business settings updated", zap.String("user_id", userID.String()))

	response := ToSettingsResponse(user.Profile)
	return &response, nil
}
