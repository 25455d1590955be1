package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatKey_IsOrderIndependent(t *testing.T) {
	assert.Equal(t, ChatKey("alice", "bob"), ChatKey("bob", "alice"))
	assert.Equal(t, "5_alice_bob", ChatKey("bob", "alice"))
}

func TestChatKey_SeparatorInIDs(t *testing.T) {
	assert.NotEqual(t, ChatKey("a_b", "c"), ChatKey("a", "b_c"))
	assert.NotEqual(t, ChatKey("1_x", "y"), ChatKey("1", "x_y"))
}

func TestChat_Other(t *testing.T) {
	chat := &Chat{
		Participants:   []Participant{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Budi"}},
		ParticipantIDs: []string{"a", "b"},
		UnreadCount:    map[string]int{"a": 0, "b": 3},
	}

	other, ok := chat.Other("a")
	assert.True(t, ok)
	assert.Equal(t, "Budi", other.Name)

	_, ok = chat.Other("stranger")
	assert.False(t, ok)
	assert.Equal(t, 3, chat.UnreadFor("b"))
	assert.Equal(t, 0, chat.UnreadFor("stranger"))
}

func TestMessageStatus_CanAdvance(t *testing.T) {
	assert.True(t, MessageStatusSent.CanAdvance(MessageStatusDelivered))
	assert.True(t, MessageStatusSent.CanAdvance(MessageStatusRead))
	assert.False(t, MessageStatusRead.CanAdvance(MessageStatusDelivered))
	assert.False(t, MessageStatusDelivered.CanAdvance(MessageStatusDelivered))
	assert.False(t, MessageStatusSent.CanAdvance("archived"))
	assert.True(t, MessageStatus("").CanAdvance(MessageStatusSent))
}

func TestRolePermissions(t *testing.T) {
	assert.False(t, RoleUser.Can(PermAccessAdminPanel))
	assert.True(t, RoleModerator.Can(PermViewSystemInfo))
	assert.False(t, RoleModerator.Can(PermManageUsers))
	assert.True(t, RoleAdmin.Can(PermManageDatabase))
	assert.Equal(t, RoleUser, ParseRole("superuser"))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
}
