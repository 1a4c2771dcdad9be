package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/support-deck/chat-service/internal/domain"
	"github.com/support-deck/chat-service/internal/events"
	"github.com/support-deck/chat-service/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository mirroring the SQL
// contracts the services rely on.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	order   []string
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *fakeTicketRepo) getLocked(id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) List(ctx context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Ticket, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, *r.tickets[r.order[i]])
	}
	return out, nil
}

func (r *fakeTicketRepo) ListSolved(ctx context.Context, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		t := r.tickets[r.order[i]]
		if t.Status == domain.TicketStatusFixed {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ApplyMessage(ctx context.Context, id, snippet string, at time.Time) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.MessageCount++
	ticket.LastMessageSnippet = snippet
	ticket.LastMessageAt = &at
	ticket.UpdatedAt = at
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Close(ctx context.Context, id string, at time.Time) (*domain.Ticket, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	if ticket.Status == domain.TicketStatusFixed {
		clone := *ticket
		return &clone, false, nil
	}
	ticket.Status = domain.TicketStatusFixed
	ticket.ClosedAt = &at
	ticket.UpdatedAt = at
	clone := *ticket
	return &clone, true, nil
}

func (r *fakeTicketRepo) SetFlag(ctx context.Context, id string, flagged bool, at *time.Time) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Flagged = flagged
	ticket.FlaggedAt = at
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) SaveAnalysis(ctx context.Context, id string, update repository.AnalysisUpdate) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.AISummary = update.Summary
	ticket.AISentiment = update.Sentiment
	ticket.AIKeywords = update.Keywords
	if update.Flagged && !ticket.Flagged {
		ticket.Flagged = true
		at := update.AnalyzedAt
		ticket.FlaggedAt = &at
	}
	at := update.AnalyzedAt
	ticket.AnalyzedAt = &at
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Counts(ctx context.Context) (repository.TicketCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := repository.TicketCounts{SeverityCounts: make(map[domain.TicketSeverity]int)}
	for _, t := range r.tickets {
		counts.Total++
		if t.Status == domain.TicketStatusFixed {
			counts.Fixed++
		} else {
			counts.Open++
		}
		if t.Flagged {
			counts.Flagged++
		}
		counts.SeverityCounts[t.Severity]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) AvgResolutionMs(ctx context.Context, sample int) (float64, error) {
	return 0, nil
}

func (r *fakeTicketRepo) AvgActiveMsAt(ctx context.Context, at time.Time) (float64, error) {
	return 0, nil
}

func (r *fakeTicketRepo) AvgResolutionMsBetween(ctx context.Context, from, to time.Time) (float64, error) {
	return 0, nil
}

func (r *fakeTicketRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.tickets {
		if !t.CreatedAt.Before(from) && t.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) HourlyCreatedCounts(ctx context.Context, from, to time.Time) (map[int]int, error) {
	return map[int]int{}, nil
}

// fakeMessageRepo is an in-memory ChatMessageRepository preserving insertion
// order as creation order.
type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []domain.ChatMessage
	seq  int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Microsecond)
	msg.UpdatedAt = msg.CreatedAt
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, msg := range r.msgs {
		if msg.TicketID != ticketID {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// recordingDispatcher captures every published event for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) SubscribeAll(handler events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeScheduler records AI reply requests.
type fakeScheduler struct {
	mu        sync.Mutex
	ticketIDs []string
}

func (s *fakeScheduler) ScheduleReply(ctx context.Context, ticketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticketIDs = append(s.ticketIDs, ticketID)
}

func (s *fakeScheduler) scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.ticketIDs...)
}
