package service

import (
	"context"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
)

type shipmentCounter interface {
	CountByStatus(ctx context.Context, since time.Time) (map[models.ShipmentStatus]int, error)
}

// StatsService builds the dashboard summary.
type StatsService struct {
	repo   shipmentCounter
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService constructs a StatsService.
func NewStatsService(repo shipmentCounter, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, logger: logger, now: time.Now}
}

// Shipments counts shipments by status and over the current day, week and month.
func (s *StatsService) Shipments(ctx context.Context) (*models.ShipmentStats, error) {
	byStatus, err := s.repo.CountByStatus(ctx, time.Time{})
	if err != nil {
		return nil, storeError(err, "shipment stats", "load")
	}

	stats := &models.ShipmentStats{ByStatus: make(map[models.ShipmentStatus]int, len(byStatus)), GeneratedAt: s.now().UTC()}
	for _, status := range models.ShipmentStatuses() {
		stats.ByStatus[status] = byStatus[status]
	}
	for _, c := range byStatus {
		stats.Total += c
	}

	period := (&now.Config{WeekStartDay: time.Monday, TimeLocation: time.UTC}).With(s.now().UTC())
	for _, p := range []struct {
		since time.Time
		dst   *int
	}{
		{period.BeginningOfDay(), &stats.CreatedToday},
		{period.BeginningOfWeek(), &stats.CreatedThisWeek},
		{period.BeginningOfMonth(), &stats.CreatedThisMonth},
	} {
		counts, err := s.repo.CountByStatus(ctx, p.since)
		if err != nil {
			return nil, storeError(err, "shipment stats", "load")
		}
		for _, c := range counts {
			*p.dst += c
		}
	}
	return stats, nil
}
