package redis

import (
	"fmt"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// Key prefix for all chat-service data
const keyPrefix = "scrimchat"

// Key generation functions for each entity type

// sessionKey returns the Redis key for a UserSession
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// teamKey returns the Redis key for a Team
func teamKey(id model.TeamID) string {
	return fmt.Sprintf("%s:team:%s", keyPrefix, id)
}

// applicationKey returns the Redis key for a TeamApplication
func applicationKey(id model.ApplicationID) string {
	return fmt.Sprintf("%s:application:%s", keyPrefix, id)
}

// approachKey returns the Redis key for a RecruitmentApproach
func approachKey(id model.ApproachID) string {
	return fmt.Sprintf("%s:approach:%s", keyPrefix, id)
}

// tryoutKey returns the Redis key for a TryoutSession
func tryoutKey(id model.TryoutID) string {
	return fmt.Sprintf("%s:tryout:%s", keyPrefix, id)
}

// conversationKey returns the Redis key for a conversation's message LIST
func conversationKey(key model.ConversationKey) string {
	return fmt.Sprintf("%s:conv:%s", keyPrefix, key)
}
