package entity

import (
	"fmt"
	"sort"
	"time"
)

// Participant is a snapshot of a user's identity taken when the chat was
// created.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// Chat is the two-party conversation aggregate. ParticipantIDs mirrors
// Participants for array-contains queries.
type Chat struct {
	ID                string         `json:"id"`
	Participants      []Participant  `json:"participants"`
	ParticipantIDs    []string       `json:"participant_ids"`
	LastMessage       string         `json:"last_message"`
	LastMessageTime   time.Time      `json:"last_message_time"`
	LastMessageSender string         `json:"last_message_sender,omitempty"`
	UnreadCount       map[string]int `json:"unread_count"`
	ListingID         string         `json:"listing_id,omitempty"`
	ListingTitle      string         `json:"listing_title,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Other returns the counterpart of userID, or false if userID is not in
// the chat.
func (c *Chat) Other(userID string) (Participant, bool) {
	if !c.HasParticipant(userID) {
		return Participant{}, false
	}
	for _, p := range c.Participants {
		if p.ID != userID {
			return p, true
		}
	}
	return Participant{}, false
}

func (c *Chat) UnreadFor(userID string) int {
	return c.UnreadCount[userID]
}

// ChatKey is the deterministic id of the chat between two users. The
// first id is length-prefixed so ids containing "_" cannot collide.
func ChatKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return fmt.Sprintf("%d_%s_%s", len(ids[0]), ids[0], ids[1])
}
