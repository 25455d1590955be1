package usecase

import (
	"strings"

	"foodshare/internal/domain/entity"
)

type ConversationRole string

const (
	RoleProducer ConversationRole = "producer"
	RoleConsumer ConversationRole = "consumer"
)

type ReplyCategory string

const (
	CategoryInterested   ReplyCategory = "interested"
	CategoryPickup       ReplyCategory = "pickup"
	CategoryThanks       ReplyCategory = "thanks"
	CategoryAvailability ReplyCategory = "availability"
	CategoryPrice        ReplyCategory = "price"
)

// QuickReplies is the canned reply table per role and category.
var QuickReplies = map[ConversationRole]map[ReplyCategory][]string{
	RoleConsumer: {
		CategoryInterested: {
			"I'm interested! Is this still available?",
			"When can I pick this up?",
			"Can you tell me more about this?",
			"Is the price negotiable?",
		},
		CategoryPickup: {
			"When's the best time to pick up?",
			"Can I pick up today?",
			"Do you offer delivery?",
			"Where exactly is the pickup location?",
		},
		CategoryThanks: {
			"Thank you so much!",
			"Perfect, see you then!",
			"Appreciate it!",
			"Sounds great!",
		},
	},
	RoleProducer: {
		CategoryAvailability: {
			"Yes, it's still available!",
			"Sorry, this has been taken",
			"I have more if you're interested",
			"Let me check and get back to you",
		},
		CategoryPickup: {
			"You can pick up anytime today",
			"How about this evening?",
			"I'm available on weekends",
			"Let me send you the exact address",
		},
		CategoryPrice: {
			"The price is firm",
			"I can do a small discount for bulk",
			"Make me an offer!",
			"It's free - just come pick it up!",
		},
	},
}

// QuickReplyTypes tags a reply sent from a category.
var QuickReplyTypes = map[ReplyCategory]entity.QuickReplyType{
	CategoryInterested:   entity.QuickReplyInterested,
	CategoryAvailability: entity.QuickReplyAvailable,
	CategoryPrice:        entity.QuickReplyPriceNegotiation,
	CategoryPickup:       entity.QuickReplyPickupTime,
}

type Suggestion struct {
	Role     ConversationRole      `json:"role"`
	Category ReplyCategory         `json:"category"`
	Type     entity.QuickReplyType `json:"quick_reply_type,omitempty"`
	Replies  []string              `json:"replies"`
}

// RoleForListing is producer when userID owns the listing. Chats without
// a listing are treated as consumer conversations.
func RoleForListing(userID string, listing *entity.Listing) ConversationRole {
	if listing != nil && listing.ProducerID != "" && listing.ProducerID == userID {
		return RoleProducer
	}
	return RoleConsumer
}

// SuggestQuickReplies picks a reply set from the last message of the
// thread. messages must be in ascending timestamp order.
func SuggestQuickReplies(role ConversationRole, messages []*entity.Message, currentUserID string) Suggestion {
	var last *entity.Message
	if len(messages) > 0 {
		last = messages[len(messages)-1]
	}

	if last == nil || last.SenderID == currentUserID {
		return suggestion(role, openingCategory(role))
	}

	text := strings.ToLower(last.Content)
	switch {
	case strings.Contains(text, "pick") || strings.Contains(text, "when"):
		return suggestion(role, CategoryPickup)
	case strings.Contains(text, "price") || strings.Contains(text, "cost"):
		if role == RoleProducer {
			return suggestion(role, CategoryPrice)
		}
		return suggestion(role, CategoryInterested)
	}

	if role == RoleProducer {
		return suggestion(role, CategoryAvailability)
	}
	// Consumers have no availability set.
	return suggestion(role, CategoryInterested)
}

func openingCategory(role ConversationRole) ReplyCategory {
	if role == RoleProducer {
		return CategoryAvailability
	}
	return CategoryInterested
}

func suggestion(role ConversationRole, category ReplyCategory) Suggestion {
	replies := QuickReplies[role][category]
	out := make([]string, len(replies))
	copy(out, replies)
	return Suggestion{
		Role:     role,
		Category: category,
		Type:     QuickReplyTypes[category],
		Replies:  out,
	}
}
