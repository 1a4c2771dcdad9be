package domain

import "time"

// MessageAuthorType identifies who authored a chat message.
type MessageAuthorType string

const (
	AuthorTypeUser  MessageAuthorType = "user"
	AuthorTypeStaff MessageAuthorType = "staff"
	AuthorTypeBot   MessageAuthorType = "bot"
)

// IsStaff treats both "staff" and the legacy "agent" label as staff authors.
func IsStaff(authorType string) bool {
	return authorType == string(AuthorTypeStaff) || authorType == "agent"
}

// ChatMessage is one turn in a ticket's conversation. Messages are immutable
// once created; per-ticket ordering is by creation time ascending.
type ChatMessage struct {
	ID         string
	TicketID   string
	AuthorType MessageAuthorType
	AuthorName string
	Text       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
