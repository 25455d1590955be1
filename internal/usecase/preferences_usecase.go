package usecase

import (
	"context"
	"log"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
)

type PreferencesUseCase struct {
	prefsRepo repository.ChatPreferencesRepository
	timeout   time.Duration
}

func NewPreferencesUseCase(prefsRepo repository.ChatPreferencesRepository, timeout time.Duration) *PreferencesUseCase {
	return &PreferencesUseCase{
		prefsRepo: prefsRepo,
		timeout:   timeout,
	}
}

// UpdatePreferencesInput changes only the fields that are set.
type UpdatePreferencesInput struct {
	EnableNotifications    *bool
	EnableTypingIndicators *bool
	AutoMarkAsRead         *bool
	QuickRepliesEnabled    *bool
}

func (uc *PreferencesUseCase) Get(ctx context.Context, userID string) (*entity.ChatPreferences, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	prefs, err := uc.prefsRepo.Get(ctx, userID)
	if err != nil {
		log.Printf("GetChatPreferences Error: %v", err)
		return nil, err
	}
	return prefs, nil
}

func (uc *PreferencesUseCase) Update(ctx context.Context, userID string, input UpdatePreferencesInput) (*entity.ChatPreferences, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	prefs, err := uc.prefsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.EnableNotifications != nil {
		prefs.EnableNotifications = *input.EnableNotifications
	}
	if input.EnableTypingIndicators != nil {
		prefs.EnableTypingIndicators = *input.EnableTypingIndicators
	}
	if input.AutoMarkAsRead != nil {
		prefs.AutoMarkAsRead = *input.AutoMarkAsRead
	}
	if input.QuickRepliesEnabled != nil {
		prefs.QuickRepliesEnabled = *input.QuickRepliesEnabled
	}

	if err := uc.prefsRepo.Save(ctx, prefs); err != nil {
		log.Printf("UpdateChatPreferences Error: %v", err)
		return nil, err
	}
	return prefs, nil
}
