package ai

import (
	"fmt"
	"strings"

	"github.com/support-deck/chat-service/internal/domain"
)

// EstimateTokens approximates provider token usage as ceil(len/4).
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// perMessageOverhead accounts for the provider's own framing of each turn.
const perMessageOverhead = 4

// placeholderTurn is substituted when not even the newest history message
// fits the budget, so the provider always receives a non-empty conversation.
const placeholderTurn = "User started a new ticket."

// PromptInput parameterizes conversation assembly for a provider call.
type PromptInput struct {
	SystemPrompt   string
	Ticket         *domain.Ticket
	History        []domain.ChatMessage
	ModelMaxTokens int
	ResponseTokens int
}

// BuildMessages assembles the provider conversation: system instructions, a
// condensed ticket-context block, then as much trailing history as fits
// within ModelMaxTokens minus ResponseTokens. History is trimmed oldest
// first when the budget is exceeded.
func BuildMessages(in PromptInput) []ChatMessage {
	systemPrompt := strings.TrimSpace(in.SystemPrompt)
	contextBlock := ticketContextBlock(in.Ticket)

	messages := []ChatMessage{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleSystem, Content: contextBlock},
	}

	headroom := in.ModelMaxTokens - in.ResponseTokens
	used := EstimateTokens(systemPrompt) + EstimateTokens(contextBlock)

	var convo []ChatMessage
	for i := len(in.History) - 1; i >= 0; i-- {
		msg := in.History[i]
		role := RoleAssistant
		if msg.AuthorType == domain.AuthorTypeUser {
			role = RoleUser
		}
		name := msg.AuthorName
		if name == "" {
			name = role
		}
		line := fmt.Sprintf("%s: %s", name, msg.Text)
		cost := EstimateTokens(line) + perMessageOverhead
		if used+cost > headroom {
			break
		}
		used += cost
		convo = append([]ChatMessage{{Role: role, Content: line}}, convo...)
	}

	if len(convo) == 0 {
		convo = append(convo, ChatMessage{Role: RoleUser, Content: placeholderTurn})
	}
	return append(messages, convo...)
}

func ticketContextBlock(ticket *domain.Ticket) string {
	var parts []string
	if ticket != nil {
		if ticket.Title != "" {
			parts = append(parts, "Issue: "+ticket.Title)
		}
		if ticket.City != "" {
			parts = append(parts, "City: "+ticket.City)
		}
		if len(ticket.AIKeywords) > 0 {
			parts = append(parts, "Keywords: "+strings.Join(ticket.AIKeywords, ", "))
		}
		if ticket.AISentiment != "" {
			parts = append(parts, "Prev sentiment: "+string(ticket.AISentiment))
		}
	}
	if len(parts) == 0 {
		return "Ticket context: (none)"
	}
	return "Ticket context: " + strings.Join(parts, " | ")
}
