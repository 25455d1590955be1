package repository

import (
	"context"
	"errors"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/docstore"
	apperrors "foodshare/pkg/errors"
)

type docstoreTypingRepository struct {
	store docstore.Store
}

func NewDocstoreTypingRepository(store docstore.Store) repository.TypingRepository {
	return &docstoreTypingRepository{
		store: store,
	}
}

func typingPath(chatID, userID string) string {
	return docstore.DocPath(chatsCollection, chatID, typingCollection, userID)
}

// Set upserts the record so one write covers both first use and re-entry.
func (r *docstoreTypingRepository) Set(ctx context.Context, chatID, userID, userName string) error {
	err := r.store.Set(ctx, typingPath(chatID, userID), map[string]interface{}{
		"userId":    userID,
		"userName":  userName,
		"chatId":    chatID,
		"timestamp": docstore.ServerTimestamp,
	})
	return apperrors.FromStore(err, "Typing indicator")
}

func (r *docstoreTypingRepository) Clear(ctx context.Context, chatID, userID string) error {
	err := r.store.Update(ctx, typingPath(chatID, userID), []docstore.Update{
		{Path: "timestamp", Value: nil},
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return apperrors.FromStore(err, "Typing indicator")
}

func (r *docstoreTypingRepository) query(chatID string) docstore.Query {
	return docstore.From(docstore.DocPath(chatsCollection, chatID, typingCollection))
}

func (r *docstoreTypingRepository) List(ctx context.Context, chatID string) ([]*entity.TypingIndicator, error) {
	docs, err := r.store.Query(ctx, r.query(chatID))
	if err != nil {
		return nil, apperrors.FromStore(err, "Typing indicators")
	}
	return typingFromDocuments(docs), nil
}

func (r *docstoreTypingRepository) Watch(ctx context.Context, chatID string) (repository.Feed[[]*entity.TypingIndicator], error) {
	sub, err := r.store.Subscribe(ctx, r.query(chatID))
	if err != nil {
		return nil, apperrors.FromStore(err, "Typing indicators")
	}
	return repository.MapFeed[[]*docstore.Document, []*entity.TypingIndicator](sub, func(docs []*docstore.Document) ([]*entity.TypingIndicator, bool) {
		return typingFromDocuments(docs), true
	}), nil
}

func typingFromDocuments(docs []*docstore.Document) []*entity.TypingIndicator {
	indicators := make([]*entity.TypingIndicator, 0, len(docs))
	for _, doc := range docs {
		userID := doc.String("userId")
		if userID == "" {
			userID = doc.ID
		}
		indicators = append(indicators, &entity.TypingIndicator{
			UserID:    userID,
			UserName:  doc.String("userName"),
			ChatID:    doc.String("chatId"),
			Timestamp: doc.TimePtr("timestamp"),
		})
	}
	return indicators
}
