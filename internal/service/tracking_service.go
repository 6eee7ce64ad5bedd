package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/repository"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
	"github.com/noah-isme/colisselect-api/pkg/tracing"
)

var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

type shipmentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
}

// TrackingService manages the tracking history ledger and the public lookup.
type TrackingService struct {
	history   repository.TrackingHistoryStore
	shipments shipmentReader
	cache     *CacheService
	cacheTTL  time.Duration
	publisher EventPublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// TrackingServiceOptions carries the optional collaborators of TrackingService.
type TrackingServiceOptions struct {
	Cache     *CacheService
	CacheTTL  time.Duration
	Publisher EventPublisher
	Metrics   *MetricsService
	Validator *validator.Validate
}

// NewTrackingService constructs a TrackingService.
func NewTrackingService(history repository.TrackingHistoryStore, shipments shipmentReader, opts TrackingServiceOptions, logger *zap.Logger) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.Publisher == nil {
		opts.Publisher = noopPublisher{}
	}
	return &TrackingService{
		history:   history,
		shipments: shipments,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		validator: opts.Validator,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the history of a shipment, newest first.
func (s *TrackingService) List(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error) {
	if _, err := s.shipments.FindByID(ctx, shipmentID); err != nil {
		return nil, storeError(err, "shipment", "load")
	}
	events, err := s.history.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, storeError(err, "tracking history", "list")
	}
	if events == nil {
		events = []models.TrackingEvent{}
	}
	return events, nil
}

// Append adds a history event. A recognised status is copied onto the shipment in the same transaction.
func (s *TrackingService) Append(ctx context.Context, shipmentID int64, req models.TrackingEventRequest) (_ *models.TrackingEvent, err error) {
	ctx, span := tracing.StartSpan(ctx, "tracking.append", attribute.Int64("shipment.id", shipmentID))
	defer func() { tracing.End(span, err) }()

	event, err := s.buildEvent(req)
	if err != nil {
		return nil, err
	}
	event.ShipmentID = shipmentID

	_, recognised := event.ShipmentStatus()
	if err = s.history.Append(ctx, event, recognised); err != nil {
		return nil, storeError(err, "shipment", "append tracking event to")
	}

	s.afterWrite(ctx, event)
	return event, nil
}

// Update rewrites a history event. A recognised status is copied onto the owning shipment.
func (s *TrackingService) Update(ctx context.Context, eventID int64, req models.TrackingEventRequest) (_ *models.TrackingEvent, err error) {
	ctx, span := tracing.StartSpan(ctx, "tracking.update", attribute.Int64("event.id", eventID))
	defer func() { tracing.End(span, err) }()

	event, err := s.buildEvent(req)
	if err != nil {
		return nil, err
	}
	event.ID = eventID

	_, recognised := event.ShipmentStatus()
	if err = s.history.Update(ctx, event, recognised); err != nil {
		return nil, storeError(err, "tracking event", "update")
	}

	s.afterWrite(ctx, event)
	return event, nil
}

// Delete removes a history event. The shipment status is left as is.
func (s *TrackingService) Delete(ctx context.Context, eventID int64) error {
	event, err := s.history.Delete(ctx, eventID)
	if err != nil {
		return storeError(err, "tracking event", "delete")
	}
	if shipment, err := s.shipments.FindByID(ctx, event.ShipmentID); err == nil {
		s.invalidate(ctx, shipment)
	}
	return nil
}

// Resolve looks up the shipment behind a tracking number without touching the cache.
func (s *TrackingService) Resolve(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, appErrors.Validation("tracking_number")
	}
	shipment, err := s.shipments.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, storeError(err, "shipment", "track")
	}
	return shipment, nil
}

// Track returns a shipment and its history by tracking number. hit reports a cache hit.
func (s *TrackingService) Track(ctx context.Context, trackingNumber string) (_ *models.TrackingResult, hit bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "tracking.lookup")
	defer func() { tracing.End(span, err) }()

	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, false, appErrors.Validation("tracking_number")
	}

	key := TrackingCacheKey(trackingNumber)
	var cached models.TrackingResult
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return &cached, true, nil
	}

	generation, cacheable := s.cache.Generation(ctx, key)

	shipment, err := s.shipments.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, false, storeError(err, "shipment", "track")
	}
	events, err := s.history.ListByShipment(ctx, shipment.ID)
	if err != nil {
		return nil, false, storeError(err, "tracking history", "list")
	}
	if events == nil {
		events = []models.TrackingEvent{}
	}

	result := &models.TrackingResult{Shipment: *shipment, History: events}
	if cacheable {
		_ = s.cache.SetIfGeneration(ctx, key, generation, result, s.cacheTTL)
	}
	return result, false, nil
}

func (s *TrackingService) buildEvent(req models.TrackingEventRequest) (*models.TrackingEvent, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, appErrors.Validation("location")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		return nil, appErrors.Validation("status")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid tracking event payload")
	}
	at, err := parseEventTime(req.DateTime, s.now)
	if err != nil {
		return nil, err
	}
	return &models.TrackingEvent{
		DateTime:    at,
		Location:    location,
		Status:      status,
		Description: strings.TrimSpace(req.Description),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}, nil
}

func (s *TrackingService) afterWrite(ctx context.Context, event *models.TrackingEvent) {
	s.metrics.RecordTrackingEvent(event.Status)
	shipment, err := s.shipments.FindByID(ctx, event.ShipmentID)
	if err != nil {
		s.logger.Warn("reload shipment after tracking write", zap.Int64("shipment_id", event.ShipmentID), zap.Error(err))
		return
	}
	s.invalidate(ctx, shipment)
	s.publisher.PublishEvent(shipment, event)
}

func (s *TrackingService) invalidate(ctx context.Context, shipment *models.Shipment) {
	if tn := shipment.TrackingNumberValue(); tn != "" {
		_ = s.cache.Invalidate(ctx, TrackingCacheKey(tn))
	}
}

// parseEventTime accepts the supported layouts. An empty value means now.
func parseEventTime(raw string, now func() time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now().UTC(), nil
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, appErrors.InvalidField("date_time", "date_time must be RFC3339 or YYYY-MM-DD HH:MM:SS")
}
