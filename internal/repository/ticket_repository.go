package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/support-deck/chat-service/internal/domain"
)

// TicketCounts aggregates dashboard counters over the current ticket set.
type TicketCounts struct {
	Total          int
	Open           int
	Fixed          int
	Flagged        int
	SeverityCounts map[domain.TicketSeverity]int
}

// AnalysisUpdate carries AI fields written back after an orchestrator run.
// Flagged only ever raises the flag; it never clears one set earlier.
type AnalysisUpdate struct {
	Summary    string
	Sentiment  domain.Sentiment
	Keywords   []string
	Flagged    bool
	AnalyzedAt time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context) ([]domain.Ticket, error)
	ListSolved(ctx context.Context, limit int) ([]domain.Ticket, error)
	// ApplyMessage bumps the denormalized message counters in a single
	// UPDATE so concurrent writers cannot lose increments.
	ApplyMessage(ctx context.Context, id, snippet string, at time.Time) (*domain.Ticket, error)
	// Close transitions to fixed. The bool reports whether this call
	// performed the transition; closing an already-fixed ticket is a no-op.
	Close(ctx context.Context, id string, at time.Time) (*domain.Ticket, bool, error)
	SetFlag(ctx context.Context, id string, flagged bool, at *time.Time) (*domain.Ticket, error)
	SaveAnalysis(ctx context.Context, id string, update AnalysisUpdate) (*domain.Ticket, error)

	Counts(ctx context.Context) (TicketCounts, error)
	AvgResolutionMs(ctx context.Context, sample int) (float64, error)
	AvgActiveMsAt(ctx context.Context, at time.Time) (float64, error)
	AvgResolutionMsBetween(ctx context.Context, from, to time.Time) (float64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	HourlyCreatedCounts(ctx context.Context, from, to time.Time) (map[int]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, city, severity, status, created_by,
       message_count, last_message_snippet, last_message_at, closed_at,
       flagged, flagged_at, ai_summary, ai_sentiment, ai_keywords, analyzed_at,
       created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, city, severity, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, message_count, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.City,
		ticket.Severity,
		ticket.Status,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.MessageCount, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListSolved(ctx context.Context, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status=$1
        ORDER BY closed_at DESC NULLS LAST, updated_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusFixed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ApplyMessage(ctx context.Context, id, snippet string, at time.Time) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET message_count = message_count + 1,
            last_message_snippet=$1, last_message_at=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING ` + ticketColumns
	return r.fetchSingle(ctx, query, snippet, at, id)
}

func (r *ticketRepository) Close(ctx context.Context, id string, at time.Time) (*domain.Ticket, bool, error) {
	query := `
        UPDATE tickets SET status=$1, closed_at=$2, updated_at=NOW()
        WHERE id=$3 AND status <> $1
        RETURNING ` + ticketColumns
	ticket, err := r.fetchSingle(ctx, query, domain.TicketStatusFixed, at, id)
	if err == nil {
		return ticket, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, err
	}
	// Already fixed, or missing entirely.
	ticket, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return ticket, false, nil
}

func (r *ticketRepository) SetFlag(ctx context.Context, id string, flagged bool, at *time.Time) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET flagged=$1, flagged_at=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING ` + ticketColumns
	return r.fetchSingle(ctx, query, flagged, at, id)
}

func (r *ticketRepository) SaveAnalysis(ctx context.Context, id string, update AnalysisUpdate) (*domain.Ticket, error) {
	keywords := update.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	query := `
        UPDATE tickets SET
            ai_summary=$1, ai_sentiment=$2, ai_keywords=$3, analyzed_at=$4,
            flagged = flagged OR $5,
            flagged_at = CASE WHEN $5 AND NOT flagged THEN $4 ELSE flagged_at END,
            updated_at = NOW()
        WHERE id=$6
        RETURNING ` + ticketColumns
	return r.fetchSingle(ctx, query,
		update.Summary,
		update.Sentiment,
		keywords,
		update.AnalyzedAt,
		update.Flagged,
		id,
	)
}

func (r *ticketRepository) Counts(ctx context.Context) (TicketCounts, error) {
	counts := TicketCounts{SeverityCounts: map[domain.TicketSeverity]int{
		domain.TicketSeverityMinor:    0,
		domain.TicketSeverityMajor:    0,
		domain.TicketSeverityCritical: 0,
	}}

	const totals = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status <> 'fixed'),
               COUNT(*) FILTER (WHERE status = 'fixed'),
               COUNT(*) FILTER (WHERE flagged)
        FROM tickets`
	if err := r.pool.QueryRow(ctx, totals).Scan(&counts.Total, &counts.Open, &counts.Fixed, &counts.Flagged); err != nil {
		return counts, err
	}

	const bySeverity = `SELECT severity, COUNT(*) FROM tickets GROUP BY severity`
	rows, err := r.pool.Query(ctx, bySeverity)
	if err != nil {
		return counts, err
	}
	defer rows.Close()
	for rows.Next() {
		var severity domain.TicketSeverity
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return counts, err
		}
		counts.SeverityCounts[severity] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) AvgResolutionMs(ctx context.Context, sample int) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (COALESCE(closed_at, updated_at) - created_at)) * 1000), 0)
        FROM (
            SELECT created_at, updated_at, closed_at FROM tickets
            WHERE status='fixed' ORDER BY updated_at DESC LIMIT $1
        ) recent`
	var avg float64
	err := r.pool.QueryRow(ctx, query, sample).Scan(&avg)
	return avg, err
}

func (r *ticketRepository) AvgActiveMsAt(ctx context.Context, at time.Time) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM ($1::timestamptz - created_at)) * 1000), 0)
        FROM tickets WHERE status <> 'fixed' AND created_at <= $1`
	var avg float64
	err := r.pool.QueryRow(ctx, query, at).Scan(&avg)
	return avg, err
}

func (r *ticketRepository) AvgResolutionMsBetween(ctx context.Context, from, to time.Time) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (COALESCE(closed_at, updated_at) - created_at)) * 1000), 0)
        FROM tickets
        WHERE status='fixed' AND updated_at >= $1 AND updated_at <= $2`
	var avg float64
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&avg)
	return avg, err
}

func (r *ticketRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE created_at >= $1 AND created_at <= $2`
	var count int
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&count)
	return count, err
}

func (r *ticketRepository) HourlyCreatedCounts(ctx context.Context, from, to time.Time) (map[int]int, error) {
	const query = `
        SELECT EXTRACT(HOUR FROM created_at AT TIME ZONE 'UTC')::int AS hour, COUNT(*)
        FROM tickets WHERE created_at >= $1 AND created_at <= $2
        GROUP BY hour ORDER BY hour`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int]int)
	for rows.Next() {
		var hour, count int
		if err := rows.Scan(&hour, &count); err != nil {
			return nil, err
		}
		result[hour] = count
	}
	return result, rows.Err()
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Title,
		&t.Description,
		&t.City,
		&t.Severity,
		&t.Status,
		&t.CreatedBy,
		&t.MessageCount,
		&t.LastMessageSnippet,
		&t.LastMessageAt,
		&t.ClosedAt,
		&t.Flagged,
		&t.FlaggedAt,
		&t.AISummary,
		&t.AISentiment,
		&t.AIKeywords,
		&t.AnalyzedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
