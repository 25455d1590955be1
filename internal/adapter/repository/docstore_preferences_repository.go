package repository

import (
	"context"
	"errors"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/docstore"
	apperrors "foodshare/pkg/errors"
)

const chatPreferencesCollection = "chatPreferences"

type docstorePreferencesRepository struct {
	store docstore.Store
}

func NewDocstorePreferencesRepository(store docstore.Store) repository.ChatPreferencesRepository {
	return &docstorePreferencesRepository{
		store: store,
	}
}

func (r *docstorePreferencesRepository) Get(ctx context.Context, userID string) (*entity.ChatPreferences, error) {
	doc, err := r.store.Get(ctx, docstore.DocPath(chatPreferencesCollection, userID))
	if errors.Is(err, docstore.ErrNotFound) {
		return entity.DefaultChatPreferences(userID), nil
	}
	if err != nil {
		return nil, apperrors.FromStore(err, "Chat preferences")
	}

	prefs := entity.DefaultChatPreferences(userID)
	if v, ok := doc.Value("enableNotifications"); ok {
		prefs.EnableNotifications, _ = v.(bool)
	}
	if v, ok := doc.Value("enableTypingIndicators"); ok {
		prefs.EnableTypingIndicators, _ = v.(bool)
	}
	if v, ok := doc.Value("autoMarkAsRead"); ok {
		prefs.AutoMarkAsRead, _ = v.(bool)
	}
	if v, ok := doc.Value("quickRepliesEnabled"); ok {
		prefs.QuickRepliesEnabled, _ = v.(bool)
	}
	return prefs, nil
}

func (r *docstorePreferencesRepository) Save(ctx context.Context, prefs *entity.ChatPreferences) error {
	err := r.store.Set(ctx, docstore.DocPath(chatPreferencesCollection, prefs.UserID), map[string]interface{}{
		"userId":                 prefs.UserID,
		"enableNotifications":    prefs.EnableNotifications,
		"enableTypingIndicators": prefs.EnableTypingIndicators,
		"autoMarkAsRead":         prefs.AutoMarkAsRead,
		"quickRepliesEnabled":    prefs.QuickRepliesEnabled,
	})
	return apperrors.FromStore(err, "Chat preferences")
}
