package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/ai"
	"github.com/support-deck/chat-service/internal/config"
	"github.com/support-deck/chat-service/internal/domain"
	"github.com/support-deck/chat-service/internal/events"
	"github.com/support-deck/chat-service/internal/observability"
	"github.com/support-deck/chat-service/internal/repository"
	"github.com/support-deck/chat-service/internal/state"
	"github.com/support-deck/chat-service/internal/worker"
	"github.com/support-deck/chat-service/pkg/util"
)

// ErrAINotConfigured is returned when no completion provider is available.
var ErrAINotConfigured = errors.New("completion provider not configured")

// botAuthorName labels orchestrator-generated messages.
const botAuthorName = "AutoBot"

const (
	jobAIReply = "ai_reply"

	outcomeEnqueued   = "enqueued"
	outcomeDropped    = "dropped"
	outcomeSuppressed = "suppressed"
	outcomeCompleted  = "completed"
	outcomeFailed     = "failed"
)

// AnalysisResult is the saved AI view of a ticket.
type AnalysisResult struct {
	Summary   string
	Sentiment domain.Sentiment
	Keywords  []string
	Flagged   bool
}

// AIService orchestrates completion-provider interactions: debounced live
// auto-replies on customer messages and full-history reanalysis on close or
// on demand. Live replies run on a bounded worker pool so a slow or failing
// provider never blocks the request path; failures are logged and dropped,
// leaving the ticket untouched.
type AIService struct {
	tickets  repository.TicketRepository
	messages repository.ChatMessageRepository
	dispatch events.Dispatcher
	state    state.Service
	analyzer *ai.Analyzer
	pool     *worker.Pool
	metrics  *observability.Metrics
	logger   *zap.Logger
	cfg      config.AIConfig
}

// AIDependencies bundles collaborators for AIService. Analyzer may be nil
// when no provider API key is configured; all AI paths then no-op.
type AIDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.ChatMessageRepository
	Dispatcher  events.Dispatcher
	State       state.Service
	Analyzer    *ai.Analyzer
	Pool        *worker.Pool
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Config      config.AIConfig
}

// NewAIService constructs the orchestrator.
func NewAIService(deps AIDependencies) *AIService {
	return &AIService{
		tickets:  deps.TicketRepo,
		messages: deps.MessageRepo,
		dispatch: deps.Dispatcher,
		state:    deps.State,
		analyzer: deps.Analyzer,
		pool:     deps.Pool,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		cfg:      deps.Config,
	}
}

// ScheduleReply enqueues a live auto-reply for the ticket unless staff
// replied within the quiet window. The enqueue itself never blocks; a full
// queue drops the job and records the drop.
func (s *AIService) ScheduleReply(ctx context.Context, ticketID string) {
	if s.analyzer == nil || s.pool == nil {
		return
	}

	active, err := s.state.StaffActiveWithin(ctx, ticketID, s.cfg.QuietWindow())
	if err != nil {
		s.logger.Warn("quiet window check failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
	if active {
		s.metrics.RecordAIJob(jobAIReply, outcomeSuppressed)
		return
	}

	enqueued := s.pool.Enqueue(worker.Job{
		Name:     jobAIReply,
		TicketID: ticketID,
		Run: func(jobCtx context.Context) error {
			return s.reply(jobCtx, ticketID)
		},
	})
	if enqueued {
		s.metrics.RecordAIJob(jobAIReply, outcomeEnqueued)
	} else {
		s.metrics.RecordAIJob(jobAIReply, outcomeDropped)
	}
}

// RecordOutcome is the worker-pool observer keeping job counters honest.
func (s *AIService) RecordOutcome(job worker.Job, err error) {
	if err != nil {
		s.metrics.RecordAIJob(job.Name, outcomeFailed)
		return
	}
	s.metrics.RecordAIJob(job.Name, outcomeCompleted)
}

func (s *AIService) reply(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}

	history, err := s.messages.ListByTicket(ctx, ticketID, s.cfg.HistoryLimit)
	if err != nil {
		return err
	}

	analysis, err := s.analyzer.Reply(ctx, ticket, history)
	if err != nil {
		return err
	}

	msg := &domain.ChatMessage{
		TicketID:   ticketID,
		AuthorType: domain.AuthorTypeBot,
		AuthorName: botAuthorName,
		Text:       analysis.Reply,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}
	_ = s.dispatch.Publish(ctx, events.To(events.EventChatNew, events.NewMessagePayload(msg),
		events.TicketRoom(ticketID), events.RoomSupport))

	if _, err := s.tickets.ApplyMessage(ctx, ticketID, domain.Snippet(analysis.Reply), msg.CreatedAt); err != nil {
		return err
	}

	wasFlagged := ticket.Flagged
	updated, err := s.saveAndBroadcast(ctx, ticketID, analysis)
	if err != nil {
		return err
	}
	if updated.Flagged && !wasFlagged {
		s.emitFlagged(ctx, updated)
	}
	return nil
}

// Reanalyze runs the post-close/on-demand summary over the full bounded
// history, updating the ticket's AI fields without posting a bot message.
func (s *AIService) Reanalyze(ctx context.Context, ticketID string) (*AnalysisResult, error) {
	if s.analyzer == nil {
		return nil, ErrAINotConfigured
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}

	history, err := s.messages.ListByTicket(ctx, ticketID, s.cfg.ReanalyzeHistoryLimit)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.Summarize(ctx, ticket, history)
	if err != nil {
		return nil, err
	}

	updated, err := s.saveAndBroadcast(ctx, ticketID, analysis)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Summary:   updated.AISummary,
		Sentiment: updated.AISentiment,
		Keywords:  updated.AIKeywords,
		Flagged:   updated.Flagged,
	}, nil
}

func (s *AIService) saveAndBroadcast(ctx context.Context, ticketID string, analysis ai.Analysis) (*domain.Ticket, error) {
	updated, err := s.tickets.SaveAnalysis(ctx, ticketID, repository.AnalysisUpdate{
		Summary:    analysis.Summary,
		Sentiment:  analysis.Sentiment,
		Keywords:   analysis.Keywords,
		Flagged:    analysis.Flagged,
		AnalyzedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventTicketMeta, events.NewTicketMetaPayload(updated)))
	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventTicketUpdated, events.TicketUpdatedPayload{
		ID:                 updated.ID,
		AISentiment:        updated.AISentiment,
		AIScore:            domain.SentimentScore(updated.AISentiment),
		AIKeywords:         updated.AIKeywords,
		AISummary:          updated.AISummary,
		LastMessageSnippet: updated.LastMessageSnippet,
		MessageCount:       updated.MessageCount,
		Flagged:            updated.Flagged,
	}))
	return updated, nil
}

func (s *AIService) emitFlagged(ctx context.Context, ticket *domain.Ticket) {
	_ = s.dispatch.Publish(ctx, events.To(events.EventTicketFlagged, events.TicketFlaggedPayload{
		TicketID:  ticket.ID,
		Sentiment: ticket.AISentiment,
		Flagged:   true,
		Keywords:  ticket.AIKeywords,
		FlaggedAt: ticket.FlaggedAt,
	}, events.RoomSupport))
}
