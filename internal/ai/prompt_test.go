package ai

import (
	"strings"
	"testing"

	"github.com/support-deck/chat-service/internal/domain"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 40), 10},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.s); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestBuildMessagesIncludesFullHistoryWithinBudget(t *testing.T) {
	ticket := &domain.Ticket{Title: "No signal", City: "Oslo"}
	history := []domain.ChatMessage{
		{AuthorType: domain.AuthorTypeUser, AuthorName: "Ana", Text: "My phone has no signal."},
		{AuthorType: domain.AuthorTypeBot, AuthorName: "AutoBot", Text: "Checking coverage in your area."},
		{AuthorType: domain.AuthorTypeUser, AuthorName: "Ana", Text: "Still nothing."},
	}

	messages := BuildMessages(PromptInput{
		SystemPrompt:   "You are a support assistant.",
		Ticket:         ticket,
		History:        history,
		ModelMaxTokens: 12000,
		ResponseTokens: 500,
	})

	// two system turns plus the full conversation
	if len(messages) != 2+len(history) {
		t.Fatalf("got %d messages, want %d", len(messages), 2+len(history))
	}
	if messages[0].Role != RoleSystem || messages[1].Role != RoleSystem {
		t.Fatal("first two messages must be system turns")
	}
	if !strings.Contains(messages[1].Content, "Issue: No signal") {
		t.Errorf("context block missing issue: %q", messages[1].Content)
	}
	if messages[2].Role != RoleUser {
		t.Errorf("user turn mapped to role %q", messages[2].Role)
	}
	if messages[3].Role != RoleAssistant {
		t.Errorf("bot turn mapped to role %q", messages[3].Role)
	}
	if !strings.HasPrefix(messages[2].Content, "Ana: ") {
		t.Errorf("history line missing author prefix: %q", messages[2].Content)
	}
}

func TestBuildMessagesTrimsOldestFirst(t *testing.T) {
	var history []domain.ChatMessage
	for i := 0; i < 10; i++ {
		history = append(history, domain.ChatMessage{
			AuthorType: domain.AuthorTypeUser,
			AuthorName: "Ana",
			Text:       strings.Repeat("w", 200),
		})
	}

	// budget fits roughly two history turns after the system overhead
	messages := BuildMessages(PromptInput{
		SystemPrompt:   "sys",
		History:        history,
		ModelMaxTokens: 140,
		ResponseTokens: 10,
	})

	convo := messages[2:]
	if len(convo) == 0 || len(convo) >= len(history) {
		t.Fatalf("expected partial history, got %d of %d turns", len(convo), len(history))
	}
	// surviving turns must be the newest ones, still in order
	if convo[len(convo)-1].Content != "Ana: "+history[len(history)-1].Text {
		t.Error("newest turn must survive trimming")
	}
}

func TestBuildMessagesPlaceholderWhenNothingFits(t *testing.T) {
	history := []domain.ChatMessage{
		{AuthorType: domain.AuthorTypeUser, AuthorName: "Ana", Text: strings.Repeat("w", 4000)},
	}

	messages := BuildMessages(PromptInput{
		SystemPrompt:   "sys",
		History:        history,
		ModelMaxTokens: 20,
		ResponseTokens: 10,
	})

	last := messages[len(messages)-1]
	if last.Role != RoleUser || last.Content != placeholderTurn {
		t.Errorf("got %+v, want placeholder user turn", last)
	}
}
