package models

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation history. Turns are never edited
// after being appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ParseRole accepts the roles the chat UI sends. "bot" and "model" are
// older spellings of the assistant role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "assistant", "bot", "model":
		return RoleAssistant, true
	}
	return "", false
}
