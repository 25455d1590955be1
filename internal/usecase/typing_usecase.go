package usecase

import (
	"context"
	"log"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
)

type TypingUseCase struct {
	typingRepo  repository.TypingRepository
	chatRepo    repository.ChatRepository
	rateLimiter *ratelimit.RateLimiter
	timeout     time.Duration
}

func NewTypingUseCase(
	typingRepo repository.TypingRepository,
	chatRepo repository.ChatRepository,
	rateLimiter *ratelimit.RateLimiter,
	timeout time.Duration,
) *TypingUseCase {
	return &TypingUseCase{
		typingRepo:  typingRepo,
		chatRepo:    chatRepo,
		rateLimiter: rateLimiter,
		timeout:     timeout,
	}
}

// SetTypingIndicator marks userID as typing in the chat. An empty userName
// is taken from the chat's participant snapshot.
func (uc *TypingUseCase) SetTypingIndicator(ctx context.Context, chatID, userID, userName string) error {
	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionTyping)
	if !allowed {
		log.Printf("SetTypingIndicator Rate Limited: User %s must wait %v", userID, waitTime)
		return errors.TooManyRequests("Too many typing updates")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Forbidden("You are not a participant in this chat", nil)
	}
	if userName == "" {
		for _, p := range chat.Participants {
			if p.ID == userID {
				userName = p.Name
			}
		}
	}

	if err := uc.typingRepo.Set(ctx, chatID, userID, userName); err != nil {
		log.Printf("SetTypingIndicator Error: %v", err)
		return err
	}
	return nil
}

func (uc *TypingUseCase) ClearTypingIndicator(ctx context.Context, chatID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.typingRepo.Clear(ctx, chatID, userID); err != nil {
		log.Printf("ClearTypingIndicator Error: %v", err)
		return err
	}
	return nil
}

// GetTypingIndicators streams who else is typing in the chat. The viewer's
// own record and cleared records are left out.
func (uc *TypingUseCase) GetTypingIndicators(ctx context.Context, chatID, viewerID string) (repository.Feed[[]*entity.TypingIndicator], error) {
	feed, err := uc.typingRepo.Watch(ctx, chatID)
	if err != nil {
		log.Printf("GetTypingIndicators Error: %v", err)
		return nil, err
	}
	return repository.MapFeed[[]*entity.TypingIndicator, []*entity.TypingIndicator](feed, func(indicators []*entity.TypingIndicator) ([]*entity.TypingIndicator, bool) {
		return ActiveTypers(indicators, viewerID), true
	}), nil
}

func (uc *TypingUseCase) ListTypingIndicators(ctx context.Context, chatID, viewerID string) ([]*entity.TypingIndicator, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	indicators, err := uc.typingRepo.List(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return ActiveTypers(indicators, viewerID), nil
}

func ActiveTypers(indicators []*entity.TypingIndicator, viewerID string) []*entity.TypingIndicator {
	out := make([]*entity.TypingIndicator, 0, len(indicators))
	for _, ind := range indicators {
		if ind.UserID == viewerID || !ind.Active() {
			continue
		}
		out = append(out, ind)
	}
	return out
}
