package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/config"
	"github.com/support-deck/chat-service/internal/domain"
	"github.com/support-deck/chat-service/internal/events"
	"github.com/support-deck/chat-service/internal/repository"
	"github.com/support-deck/chat-service/internal/state"
)

// Stats is the live aggregate broadcast to dashboards.
type Stats struct {
	Total                int                           `json:"total"`
	Open                 int                           `json:"open"`
	Fixed                int                           `json:"fixed"`
	Flagged              int                           `json:"flagged"`
	SeverityCounts       map[domain.TicketSeverity]int `json:"severityCounts"`
	AvgActiveMinutes     float64                       `json:"avgActiveMinutes"`
	AvgResolutionMinutes float64                       `json:"avgResolutionMinutes"`
	Happiness            int                           `json:"happiness"`
}

// HourlyBucket is one hour of today's ticket-creation histogram.
type HourlyBucket struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// MetricsSummary feeds the dashboard's intake widgets.
type MetricsSummary struct {
	TodayCount     int            `json:"todayCount"`
	ProjectedToday int            `json:"projectedToday"`
	Avg7d          float64        `json:"avg7d"`
	Avg30d         float64        `json:"avg30d"`
	DeltaVs7d      *int           `json:"deltaVs7d"`
	HourlyToday    []HourlyBucket `json:"hourlyToday"`
}

// OpsPoint is one sample of the rolling operational series.
type OpsPoint struct {
	Ts            int64   `json:"ts"`
	ActiveMin     float64 `json:"activeMin"`
	ResolutionMin float64 `json:"resolutionMin"`
}

// StatsService recomputes read-mostly aggregates over the ticket set. The
// live snapshot is a pure function of the current tickets plus the happiness
// gauge; it is recomputed on demand and on a fixed interval rather than
// maintained incrementally.
type StatsService struct {
	tickets  repository.TicketRepository
	dispatch events.Dispatcher
	state    state.Service
	logger   *zap.Logger
	cfg      config.StatsConfig
}

// NewStatsService constructs the service.
func NewStatsService(tickets repository.TicketRepository, dispatch events.Dispatcher, st state.Service, logger *zap.Logger, cfg config.StatsConfig) *StatsService {
	return &StatsService{
		tickets:  tickets,
		dispatch: dispatch,
		state:    st,
		logger:   logger,
		cfg:      cfg,
	}
}

// Compute builds the current live snapshot.
func (s *StatsService) Compute(ctx context.Context) (Stats, error) {
	counts, err := s.tickets.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}

	resolutionMs, err := s.tickets.AvgResolutionMs(ctx, s.cfg.ResolutionSample)
	if err != nil {
		return Stats{}, err
	}
	activeMs, err := s.tickets.AvgActiveMsAt(ctx, time.Now())
	if err != nil {
		return Stats{}, err
	}

	happiness, err := s.state.Happiness(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Total:                counts.Total,
		Open:                 counts.Open,
		Fixed:                counts.Fixed,
		Flagged:              counts.Flagged,
		SeverityCounts:       counts.SeverityCounts,
		AvgActiveMinutes:     roundMinutes(activeMs),
		AvgResolutionMinutes: roundMinutes(resolutionMs),
		Happiness:            happiness,
	}, nil
}

// Broadcast recomputes the snapshot and emits it to every connected client.
// Failures are logged, never propagated; the next tick retries anyway.
func (s *StatsService) Broadcast(ctx context.Context) {
	stats, err := s.Compute(ctx)
	if err != nil {
		s.logger.Error("compute stats failed", zap.Error(err))
		return
	}
	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventLiveStats, stats))
}

// BumpHappiness applies a gauge delta and announces the new value.
func (s *StatsService) BumpHappiness(ctx context.Context, delta int) {
	happiness, err := s.state.AdjustHappiness(ctx, delta)
	if err != nil {
		s.logger.Error("adjust happiness failed", zap.Error(err))
		return
	}
	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventHappinessUpdate, events.HappinessPayload{Happiness: happiness}))
}

// Run broadcasts the live snapshot on the configured interval until ctx is
// cancelled.
func (s *StatsService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Broadcast(ctx)
		}
	}
}

// HappinessSnapshot implements the hub's SnapshotSource.
func (s *StatsService) HappinessSnapshot(ctx context.Context) (int, error) {
	return s.state.Happiness(ctx)
}

// StatsSnapshot implements the hub's SnapshotSource.
func (s *StatsService) StatsSnapshot(ctx context.Context) (any, error) {
	return s.Compute(ctx)
}

// Summary computes today's intake metrics against 7 and 30 day baselines.
// All bucketing is UTC.
func (s *StatsService) Summary(ctx context.Context) (MetricsSummary, error) {
	now := time.Now().UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start7d := startOfToday.AddDate(0, 0, -7)
	start30d := startOfToday.AddDate(0, 0, -30)

	todayCount, err := s.tickets.CountCreatedBetween(ctx, startOfToday, now)
	if err != nil {
		return MetricsSummary{}, err
	}
	total7d, err := s.tickets.CountCreatedBetween(ctx, start7d, now)
	if err != nil {
		return MetricsSummary{}, err
	}
	total30d, err := s.tickets.CountCreatedBetween(ctx, start30d, now)
	if err != nil {
		return MetricsSummary{}, err
	}
	hourly, err := s.tickets.HourlyCreatedCounts(ctx, startOfToday, now)
	if err != nil {
		return MetricsSummary{}, err
	}

	buckets := make([]HourlyBucket, 24)
	for h := 0; h < 24; h++ {
		buckets[h] = HourlyBucket{Hour: fmt.Sprintf("%02d", h), Count: hourly[h]}
	}

	avg7d := round1(float64(total7d) / 7)
	avg30d := round1(float64(total30d) / 30)

	projected := todayCount
	if elapsed := now.Sub(startOfToday); elapsed > 0 {
		projected = int(math.Round(float64(todayCount) / elapsed.Hours() * 24))
	}

	var delta *int
	if avg7d > 0 {
		d := int(math.Round((float64(todayCount) - avg7d) / avg7d * 100))
		delta = &d
	}

	return MetricsSummary{
		TodayCount:     todayCount,
		ProjectedToday: projected,
		Avg7d:          avg7d,
		Avg30d:         avg30d,
		DeltaVs7d:      delta,
		HourlyToday:    buckets,
	}, nil
}

// OpsSeries samples the last 12 hours of operational averages, one point
// per hour.
func (s *StatsService) OpsSeries(ctx context.Context) ([]OpsPoint, error) {
	now := time.Now()
	points := make([]OpsPoint, 0, 12)

	for i := 11; i >= 0; i-- {
		windowEnd := now.Add(-time.Duration(i) * time.Hour)
		windowStart := windowEnd.Add(-time.Hour)

		activeMs, err := s.tickets.AvgActiveMsAt(ctx, windowEnd)
		if err != nil {
			return nil, err
		}
		resolutionMs, err := s.tickets.AvgResolutionMsBetween(ctx, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}

		points = append(points, OpsPoint{
			Ts:            windowEnd.UnixMilli(),
			ActiveMin:     roundMinutes(activeMs),
			ResolutionMin: roundMinutes(resolutionMs),
		})
	}
	return points, nil
}

func roundMinutes(ms float64) float64 {
	return round1(ms / 60000)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
