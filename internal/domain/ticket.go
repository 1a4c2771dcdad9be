package domain

import (
	"time"
	"unicode/utf8"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen  TicketStatus = "open"
	TicketStatusFixed TicketStatus = "fixed"
)

// TicketSeverity enumerates reported impact levels.
type TicketSeverity string

const (
	TicketSeverityMinor    TicketSeverity = "minor"
	TicketSeverityMajor    TicketSeverity = "major"
	TicketSeverityCritical TicketSeverity = "critical"
)

// SnippetMaxLen caps the denormalized last-message snippet stored on a ticket.
const SnippetMaxLen = 120

// SummaryMaxLen caps AI conversation summaries.
const SummaryMaxLen = 400

// ReplyMaxLen caps AI-generated reply bodies.
const ReplyMaxLen = 4000

// Ticket is the aggregate for support requests. It owns denormalized chat
// counters (MessageCount, LastMessageSnippet, LastMessageAt) that must track
// the persisted message set, plus the AI analysis fields written by the
// reply/reanalysis orchestrator.
type Ticket struct {
	ID          string
	Title       string
	Description string
	City        string
	Severity    TicketSeverity
	Status      TicketStatus
	CreatedBy   string

	MessageCount       int
	LastMessageSnippet string
	LastMessageAt      *time.Time
	ClosedAt           *time.Time

	Flagged   bool
	FlaggedAt *time.Time

	AISummary   string
	AISentiment Sentiment
	AIKeywords  []string
	AnalyzedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClosed reports whether the ticket reached its terminal state.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusFixed
}

// NormalizeSeverity maps free-form input onto the severity enum, defaulting
// to minor.
func NormalizeSeverity(raw string) TicketSeverity {
	switch TicketSeverity(raw) {
	case TicketSeverityMajor:
		return TicketSeverityMajor
	case TicketSeverityCritical:
		return TicketSeverityCritical
	default:
		return TicketSeverityMinor
	}
}

// Truncate clips s to at most max bytes without splitting a rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Snippet derives the denormalized last-message snippet from message text.
func Snippet(text string) string {
	return Truncate(text, SnippetMaxLen)
}
