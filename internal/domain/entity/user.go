package entity

import (
	"time"
)

type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Participant snapshots the user's current name and photo.
func (u *User) Participant() Participant {
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	return Participant{ID: u.ID, Name: name, Photo: u.PhotoURL}
}
