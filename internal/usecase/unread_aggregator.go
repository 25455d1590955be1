package usecase

import (
	"context"
	"log"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
)

// UnreadUpdate is one badge value. Notify is set when the total grew from
// a non-zero value, so the first load after connecting stays quiet.
type UnreadUpdate struct {
	Total    int  `json:"total"`
	Previous int  `json:"previous"`
	Delta    int  `json:"delta"`
	Notify   bool `json:"notify"`
}

type UnreadAggregator struct {
	chatRepo repository.ChatRepository
}

func NewUnreadAggregator(chatRepo repository.ChatRepository) *UnreadAggregator {
	return &UnreadAggregator{
		chatRepo: chatRepo,
	}
}

// Watch recomputes the user's total unread count on every change to their
// chats. Snapshots that leave the total unchanged are not emitted, except
// for the first one.
func (a *UnreadAggregator) Watch(ctx context.Context, userID string) (repository.Feed[UnreadUpdate], error) {
	feed, err := a.chatRepo.WatchByParticipant(ctx, userID)
	if err != nil {
		log.Printf("WatchUnread Error: user=%s: %v", userID, err)
		return nil, err
	}

	previous := 0
	first := true
	return repository.MapFeed[[]*entity.Chat, UnreadUpdate](feed, func(chats []*entity.Chat) (UnreadUpdate, bool) {
		total := SumUnread(chats, userID)
		if !first && total == previous {
			return UnreadUpdate{}, false
		}
		update := UnreadUpdate{
			Total:    total,
			Previous: previous,
			Delta:    total - previous,
			Notify:   total > previous && previous > 0,
		}
		first = false
		previous = total
		return update, true
	}), nil
}

// SumUnread adds up userID's counters across chats.
func SumUnread(chats []*entity.Chat, userID string) int {
	total := 0
	for _, chat := range chats {
		if n := chat.UnreadFor(userID); n > 0 {
			total += n
		}
	}
	return total
}
