package dto

import (
	"time"

	"github.com/support-deck/chat-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// FlagTicketRequest payload.
type FlagTicketRequest struct {
	Flagged bool `json:"flagged"`
}

// TicketResponse is the full ticket shape returned to clients.
type TicketResponse struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	City               string                `json:"city"`
	Severity           domain.TicketSeverity `json:"severity"`
	Status             domain.TicketStatus   `json:"status"`
	CreatedBy          string                `json:"createdBy"`
	MessageCount       int                   `json:"messageCount"`
	LastMessageSnippet string                `json:"lastMessageSnippet"`
	LastMessageAt      *time.Time            `json:"lastMessageAt"`
	ClosedAt           *time.Time            `json:"closedAt"`
	Flagged            bool                  `json:"flagged"`
	FlaggedAt          *time.Time            `json:"flaggedAt"`
	AISummary          string                `json:"aiSummary"`
	AISentiment        domain.Sentiment      `json:"aiSentiment"`
	AIScore            int                   `json:"aiScore"`
	AIKeywords         []string              `json:"aiKeywords"`
	AnalyzedAt         *time.Time            `json:"analyzedAt"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// NewTicketResponse maps a ticket for the wire, deriving the numeric
// sentiment score and normalizing nil keyword slices to empty arrays.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	sentiment := domain.NormalizeSentiment(string(t.AISentiment))
	keywords := t.AIKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return TicketResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		City:               t.City,
		Severity:           t.Severity,
		Status:             t.Status,
		CreatedBy:          t.CreatedBy,
		MessageCount:       t.MessageCount,
		LastMessageSnippet: t.LastMessageSnippet,
		LastMessageAt:      t.LastMessageAt,
		ClosedAt:           t.ClosedAt,
		Flagged:            t.Flagged,
		FlaggedAt:          t.FlaggedAt,
		AISummary:          t.AISummary,
		AISentiment:        sentiment,
		AIScore:            domain.SentimentScore(sentiment),
		AIKeywords:         keywords,
		AnalyzedAt:         t.AnalyzedAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

// AnalysisResponse is the saved AI analysis for a ticket.
type AnalysisResponse struct {
	TicketID   string           `json:"ticketId"`
	Summary    string           `json:"summary"`
	Sentiment  domain.Sentiment `json:"sentiment"`
	Score      int              `json:"score"`
	Keywords   []string         `json:"keywords"`
	Flagged    bool             `json:"flagged"`
	AnalyzedAt *time.Time       `json:"analyzedAt"`
}

// NewAnalysisResponse maps the AI fields of a ticket.
func NewAnalysisResponse(t *domain.Ticket) AnalysisResponse {
	sentiment := domain.NormalizeSentiment(string(t.AISentiment))
	keywords := t.AIKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return AnalysisResponse{
		TicketID:   t.ID,
		Summary:    t.AISummary,
		Sentiment:  sentiment,
		Score:      domain.SentimentScore(sentiment),
		Keywords:   keywords,
		Flagged:    t.Flagged,
		AnalyzedAt: t.AnalyzedAt,
	}
}
