package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/support-deck/chat-service/internal/config"
	"github.com/support-deck/chat-service/internal/domain"
)

const replySystemPrompt = `
You are a customer support assistant for a telecom provider.

Respond ONLY in valid JSON with this exact shape:
{
  "reply": "<concise professional answer>",
  "sentiment": "<neutral|upset|happy|confused>",
  "flagged": <true|false>,
  "keywords": ["<keyword1>", "<keyword2>", "..."]
}

Rules:
- Only handle support topics (accounts, billing, technical support, store info).
- Extract 1-5 short issue keywords (2-6 words each) from the user's message,
  e.g. "billing error", "network outage", "SIM issue", "payment declined".
- Always include the "keywords" array (empty if none).
- If the user seems angry/frustrated or uses negative language, set "sentiment": "upset".
- If "sentiment" is "upset", set "flagged": true (requires human follow-up).
- Also set "flagged": true if the issue needs human review or account access
  (billing adjustments, refunds, escalations, outages, identity verification).
- Keep "reply" concise, polite, and professional.
`

const summarySystemPrompt = `
You are a support QA assistant evaluating a completed chat.

Return ONLY valid JSON:
{
  "summary": "<2-4 sentence neutral summary of the issue and steps taken>",
  "sentiment": "<neutral|upset|happy|confused>",
  "flagged": <true|false>,
  "keywords": ["<2-6 words each>", "..."]
}

Guidelines:
- "keywords": 1-5 short issue phrases (e.g., "billing error", "SIM activation").
- Set "flagged": true if the customer appears upset OR any action requires human
  follow-up (billing adjustments, refunds, identity verification) OR there are
  compliance concerns.
- Be concise and professional.
`

// fallbackReply stands in when the provider returns neither JSON nor text.
const fallbackReply = "Thanks, let me check that for you."

// Analysis is the normalized outcome of a provider call. Sentiment is always
// one of the fixed enum values, keywords are lower-cased and de-duplicated,
// and flagged is forced true whenever sentiment is upset.
type Analysis struct {
	Reply     string
	Summary   string
	Sentiment domain.Sentiment
	Flagged   bool
	Keywords  []string
}

// Score derives the numeric gauge value for ticket:updated events.
func (a Analysis) Score() int {
	return domain.SentimentScore(a.Sentiment)
}

type rawAnalysis struct {
	Reply     string   `json:"reply"`
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	Flagged   bool     `json:"flagged"`
	Keywords  []string `json:"keywords"`
}

// Analyzer runs the two provider interactions: live auto-replies and
// post-close conversation summaries.
type Analyzer struct {
	client CompletionClient
	cfg    config.AIConfig
}

// NewAnalyzer builds an Analyzer on top of the given provider client.
func NewAnalyzer(client CompletionClient, cfg config.AIConfig) *Analyzer {
	return &Analyzer{client: client, cfg: cfg}
}

// Reply produces an auto-reply for the latest customer message.
func (a *Analyzer) Reply(ctx context.Context, ticket *domain.Ticket, history []domain.ChatMessage) (Analysis, error) {
	messages := BuildMessages(PromptInput{
		SystemPrompt:   replySystemPrompt,
		Ticket:         ticket,
		History:        history,
		ModelMaxTokens: a.cfg.ModelMaxTokens,
		ResponseTokens: a.cfg.ResponseTokens,
	})

	raw, err := a.client.Complete(ctx, CompletionRequest{
		Model:       a.cfg.ReplyModel,
		Messages:    messages,
		MaxTokens:   a.cfg.ResponseTokens,
		Temperature: 0.4,
	})
	if err != nil {
		return Analysis{}, err
	}
	return ParseReply(raw), nil
}

// Summarize produces a QA summary over the full bounded history.
func (a *Analyzer) Summarize(ctx context.Context, ticket *domain.Ticket, history []domain.ChatMessage) (Analysis, error) {
	messages := BuildMessages(PromptInput{
		SystemPrompt:   summarySystemPrompt,
		Ticket:         ticket,
		History:        history,
		ModelMaxTokens: a.cfg.ModelMaxTokens,
		ResponseTokens: a.cfg.ReanalyzeResponseTokens,
	})

	raw, err := a.client.Complete(ctx, CompletionRequest{
		Model:       a.cfg.ReanalyzeModel,
		Messages:    messages,
		MaxTokens:   a.cfg.ReanalyzeResponseTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return Analysis{}, err
	}
	return ParseSummary(raw), nil
}

// ParseReply defensively decodes a live-reply provider response. Invalid JSON
// degrades to the raw text as the reply with neutral sentiment and no flags.
func ParseReply(raw string) Analysis {
	raw = strings.TrimSpace(raw)

	var decoded rawAnalysis
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		decoded = rawAnalysis{Reply: raw}
	}
	if decoded.Reply == "" {
		decoded.Reply = fallbackReply
	}
	return normalize(decoded)
}

// ParseSummary defensively decodes a reanalysis provider response. Invalid
// JSON degrades to the raw text as the summary.
func ParseSummary(raw string) Analysis {
	raw = strings.TrimSpace(raw)

	var decoded rawAnalysis
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		decoded = rawAnalysis{Summary: domain.Truncate(raw, domain.SummaryMaxLen)}
	}
	return normalize(decoded)
}

func normalize(decoded rawAnalysis) Analysis {
	sentiment := domain.NormalizeSentiment(decoded.Sentiment)
	flagged := decoded.Flagged
	if sentiment == domain.SentimentUpset {
		flagged = true
	}

	reply := domain.Truncate(decoded.Reply, domain.ReplyMaxLen)
	summary := decoded.Summary
	if summary == "" {
		summary = reply
	}

	return Analysis{
		Reply:     reply,
		Summary:   domain.Truncate(summary, domain.SummaryMaxLen),
		Sentiment: sentiment,
		Flagged:   flagged,
		Keywords:  domain.NormalizeKeywords(decoded.Keywords),
	}
}
