package services

import (
	"context"
	"fmt"
	"strings"

	"chainbet/telegram-client/config"
	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/events"
	"chainbet/telegram-client/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type userService struct {
	config         *config.Config
	userRepo       interfaces.UserRepository
	referralRepo   interfaces.ReferralRepository
	eventPublisher interfaces.EventPublisher
}

// NewUserService creates a new user service
func NewUserService(
	userRepo interfaces.UserRepository,
	referralRepo interfaces.ReferralRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.UserService {
	return &userService{
		config:         config.Get(),
		userRepo:       userRepo,
		referralRepo:   referralRepo,
		eventPublisher: eventPublisher,
	}
}

// GetOrCreateUser returns the user for a Telegram id, creating them on
// first interaction. A non-empty referral code belonging to another user
// registers the referral relationship, at most once per referee.
func (s *userService) GetOrCreateUser(ctx context.Context, telegramID int64, username string, referredByCode string) (*entities.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		// Targeted update so a settlement committing elsewhere cannot have
		// its stat writes overwritten by this stale snapshot.
		if err := s.userRepo.TouchActivity(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to update user activity: %w", err)
		}
		user.Touch()
		return user, nil
	}

	user = &entities.User{
		TelegramID:   telegramID,
		Username:     username,
		ReferralCode: generateReferralCode(),
		IsActive:     true,
	}

	referrer, err := s.resolveReferrer(ctx, telegramID, referredByCode)
	if err != nil {
		return nil, err
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ReferralCode
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if referrer != nil {
		referral := &entities.Referral{
			ReferrerID:  referrer.ID,
			RefereeID:   user.ID,
			BonusAmount: s.config.ReferralBonus,
		}
		if err := s.referralRepo.Create(ctx, referral); err != nil {
			return nil, fmt.Errorf("failed to register referral: %w", err)
		}
		if err := s.eventPublisher.Publish(events.ReferralRegisteredEvent{
			ReferrerID:  referrer.ID,
			RefereeID:   user.ID,
			BonusAmount: referral.BonusAmount,
		}); err != nil {
			log.WithError(err).Error("Failed to publish referral event")
		}
	}

	if err := s.eventPublisher.Publish(events.UserCreatedEvent{
		UserID:     user.ID,
		TelegramID: telegramID,
		Username:   username,
	}); err != nil {
		log.WithError(err).Error("Failed to publish user created event")
	}

	return user, nil
}

// resolveReferrer looks up the owner of a referral code, ignoring empty,
// unknown and self-referencing codes
func (s *userService) resolveReferrer(ctx context.Context, telegramID int64, code string) (*entities.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	referrer, err := s.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}
	if referrer == nil || referrer.TelegramID == telegramID {
		return nil, nil
	}
	return referrer, nil
}

// LinkWallet sets the wallet address on the user's account
func (s *userService) LinkWallet(ctx context.Context, telegramID int64, walletAddress string) (*entities.User, error) {
	user, err := s.requireUserForUpdate(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	user.WalletAddress = &walletAddress
	user.Touch()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to link wallet: %w", err)
	}
	return user, nil
}

// TouchActivity updates the user's last activity timestamp
func (s *userService) TouchActivity(ctx context.Context, telegramID int64) error {
	user, err := s.requireUser(ctx, telegramID)
	if err != nil {
		return err
	}
	if err := s.userRepo.TouchActivity(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to update user activity: %w", err)
	}
	return nil
}

// Deactivate soft-deactivates a user
func (s *userService) Deactivate(ctx context.Context, telegramID int64) error {
	user, err := s.requireUserForUpdate(ctx, telegramID)
	if err != nil {
		return err
	}
	user.Deactivate()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

func (s *userService) requireUser(ctx context.Context, telegramID int64) (*entities.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: telegram user %d", entities.ErrNotFound, telegramID)
	}
	return user, nil
}

// requireUserForUpdate loads a user holding their row lock. Full-row writes
// must go through this so the aggregate stat columns are never rewritten
// from a stale snapshot.
func (s *userService) requireUserForUpdate(ctx context.Context, telegramID int64) (*entities.User, error) {
	user, err := s.userRepo.GetByTelegramIDForUpdate(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: telegram user %d", entities.ErrNotFound, telegramID)
	}
	return user, nil
}

// generateReferralCode produces a short unique referral code
func generateReferralCode() string {
	return "ref_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
