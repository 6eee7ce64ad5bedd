package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/notification"
	"github.com/noah-isme/colisselect-api/internal/repository"
	"github.com/noah-isme/colisselect-api/pkg/config"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
	"github.com/noah-isme/colisselect-api/pkg/tracing"
)

const (
	adminOffice    = "Admin Office"
	originFacility = "Origin Facility"

	defaultPaymentMode  = "Cash"
	defaultRejectReason = "No reason provided"

	actorAdmin    = "admin"
	actorCustomer = "customer"
)

type shipmentNotifier interface {
	Notify(ctx context.Context, n notification.Notification)
}

// EventPublisher fans history events out to live subscribers.
type EventPublisher interface {
	PublishEvent(shipment *models.Shipment, event *models.TrackingEvent)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, notification.Notification) {}

type noopPublisher struct{}

func (noopPublisher) PublishEvent(*models.Shipment, *models.TrackingEvent) {}

// ShipmentServiceOptions carries the optional collaborators of ShipmentService.
type ShipmentServiceOptions struct {
	Tracking  config.TrackingConfig
	Numbers   *TrackingNumberGenerator
	Notifier  shipmentNotifier
	Publisher EventPublisher
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
}

// ShipmentService implements shipment creation, editing and the confirm/reject workflow.
type ShipmentService struct {
	repo      repository.ShipmentStore
	numbers   *TrackingNumberGenerator
	notifier  shipmentNotifier
	publisher EventPublisher
	cache     *CacheService
	metrics   *MetricsService
	cfg       config.TrackingConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewShipmentService constructs a ShipmentService.
func NewShipmentService(repo repository.ShipmentStore, opts ShipmentServiceOptions, logger *zap.Logger) *ShipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.Numbers == nil {
		opts.Numbers = NewTrackingNumberGenerator(opts.Tracking.Prefix, opts.Tracking.Suffix)
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Publisher == nil {
		opts.Publisher = noopPublisher{}
	}
	if opts.Tracking.MaxAttempts <= 0 {
		opts.Tracking.MaxAttempts = 1
	}
	return &ShipmentService{
		repo:      repo,
		numbers:   opts.Numbers,
		notifier:  opts.Notifier,
		publisher: opts.Publisher,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		cfg:       opts.Tracking,
		validator: opts.Validator,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns shipments newest first with pagination metadata.
func (s *ShipmentService) List(ctx context.Context, filter models.ShipmentFilter) ([]models.Shipment, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.InvalidField("status", "unknown shipment status")
	}
	shipments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "shipments", "list")
	}
	if shipments == nil {
		shipments = []models.Shipment{}
	}
	if filter.Unpaged {
		return shipments, &models.Pagination{Page: 1, PageSize: len(shipments), TotalCount: total}, nil
	}
	return shipments, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a shipment by id.
func (s *ShipmentService) Get(ctx context.Context, id int64) (*models.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "shipment", "load")
	}
	return shipment, nil
}

// Create stores a new shipment with its first history event.
// Admin-originated shipments start in processing with a tracking number; others wait for confirmation.
func (s *ShipmentService) Create(ctx context.Context, req models.ShipmentRequest, admin bool) (_ *models.Shipment, err error) {
	ctx, span := tracing.StartSpan(ctx, "shipment.create", attribute.Bool("shipment.admin", admin))
	defer func() { tracing.End(span, err) }()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	shipment := &models.Shipment{DateCreated: now}
	applyShipmentRequest(shipment, req)

	event := &models.TrackingEvent{DateTime: now}
	s.placeholderCoordinates(event)
	actor := actorCustomer
	if admin {
		actor = actorAdmin
		shipment.Status = models.StatusProcessing
		event.Location = adminOffice
		event.Status = string(models.StatusProcessing)
		event.Description = "Shipment created by admin and ready for processing"
	} else {
		shipment.Status = models.StatusPendingConfirmation
		event.Location = originFacility
		event.Status = string(models.StatusPendingConfirmation)
		event.Description = "Package received and awaiting admin confirmation"
	}

	attempts := 1
	if admin {
		attempts = s.cfg.MaxAttempts
	}
	for attempt := 1; ; attempt++ {
		if admin {
			tn, genErr := s.numbers.Next()
			if genErr != nil {
				return nil, appErrors.Wrap(genErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate tracking number")
			}
			shipment.TrackingNumber = &tn
		}
		err = s.repo.CreateWithEvent(ctx, shipment, event)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt >= attempts {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "tracking number already in use")
			}
			return nil, storeError(err, "shipment", "create")
		}
		s.logger.Warn("tracking number collision, regenerating", zap.Int("attempt", attempt))
	}

	s.metrics.RecordShipmentCreated(actor)
	s.metrics.RecordTrackingEvent(event.Status)
	s.publisher.PublishEvent(shipment, event)
	s.logger.Info("shipment created",
		zap.Int64("shipment_id", shipment.ID),
		zap.String("status", string(shipment.Status)),
		zap.String("actor", actor),
	)
	return shipment, nil
}

// Update rewrites the editable fields of a shipment. Status, tracking number and creation date are kept.
func (s *ShipmentService) Update(ctx context.Context, id int64, req models.ShipmentRequest) (*models.Shipment, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "shipment", "load")
	}
	applyShipmentRequest(shipment, req)
	if err := s.repo.Update(ctx, shipment); err != nil {
		return nil, storeError(err, "shipment", "update")
	}
	s.invalidate(ctx, shipment)
	return shipment, nil
}

// Delete removes a shipment together with its history.
func (s *ShipmentService) Delete(ctx context.Context, id int64) error {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "shipment", "load")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "shipment", "delete")
	}
	s.invalidate(ctx, shipment)
	return nil
}

// Confirm moves a shipment to processing and assigns its tracking number when it has none.
// No prior status is required. The shipper notification is best effort.
func (s *ShipmentService) Confirm(ctx context.Context, id int64, req models.ConfirmShipmentRequest) (_ *models.Shipment, err error) {
	ctx, span := tracing.StartSpan(ctx, "shipment.confirm", attribute.Int64("shipment.id", id))
	defer func() { tracing.End(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid confirm payload")
	}

	var (
		shipment *models.Shipment
		event    *models.TrackingEvent
	)
	for attempt := 1; ; attempt++ {
		tn, genErr := s.numbers.Next()
		if genErr != nil {
			return nil, appErrors.Wrap(genErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate tracking number")
		}
		event = &models.TrackingEvent{
			DateTime:    s.now().UTC(),
			Location:    adminOffice,
			Status:      string(models.StatusProcessing),
			Description: "Shipment confirmed and being processed",
		}
		s.placeholderCoordinates(event)

		shipment, err = s.repo.Confirm(ctx, id, models.ConfirmParams{
			TrackingNumber:   tn,
			TotalFreight:     req.TotalFreight,
			ExpectedDelivery: strings.TrimSpace(req.ExpectedDelivery),
			Comments:         strings.TrimSpace(req.Comments),
		}, event)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) {
			if attempt < s.cfg.MaxAttempts {
				s.logger.Warn("tracking number collision on confirm, regenerating", zap.Int64("shipment_id", id), zap.Int("attempt", attempt))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "tracking number already in use")
		}
		return nil, storeError(err, "shipment", "confirm")
	}

	s.afterTransition(ctx, shipment, event, notification.KindConfirmed, "")
	return shipment, nil
}

// Reject marks a shipment rejected and replaces its comments with the reason.
func (s *ShipmentService) Reject(ctx context.Context, id int64, req models.RejectShipmentRequest) (_ *models.Shipment, err error) {
	ctx, span := tracing.StartSpan(ctx, "shipment.reject", attribute.Int64("shipment.id", id))
	defer func() { tracing.End(span, err) }()

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultRejectReason
	}
	event := &models.TrackingEvent{
		DateTime:    s.now().UTC(),
		Location:    adminOffice,
		Status:      string(models.StatusRejected),
		Description: "Shipment rejected: " + reason,
	}
	s.placeholderCoordinates(event)

	shipment, err := s.repo.Reject(ctx, id, "Rejected: "+reason, event)
	if err != nil {
		return nil, storeError(err, "shipment", "reject")
	}

	s.afterTransition(ctx, shipment, event, notification.KindRejected, reason)
	return shipment, nil
}

func (s *ShipmentService) afterTransition(ctx context.Context, shipment *models.Shipment, event *models.TrackingEvent, kind notification.Kind, reason string) {
	s.invalidate(ctx, shipment)
	s.metrics.RecordTrackingEvent(event.Status)
	s.publisher.PublishEvent(shipment, event)
	s.notifier.Notify(ctx, notification.New(kind, shipment, reason))
	s.logger.Info("shipment status changed",
		zap.Int64("shipment_id", shipment.ID),
		zap.String("status", string(shipment.Status)),
		zap.String("kind", string(kind)),
	)
}

func (s *ShipmentService) invalidate(ctx context.Context, shipment *models.Shipment) {
	if tn := shipment.TrackingNumberValue(); tn != "" {
		_ = s.cache.Invalidate(ctx, TrackingCacheKey(tn))
	}
}

func (s *ShipmentService) placeholderCoordinates(event *models.TrackingEvent) {
	lat, lng := s.cfg.DefaultLatitude, s.cfg.DefaultLongitude
	event.Latitude = &lat
	event.Longitude = &lng
}

// validateRequest checks the required fields in a fixed order, then the struct rules.
func (s *ShipmentService) validateRequest(req models.ShipmentRequest) error {
	required := []struct{ field, value string }{
		{"shipper_name", req.ShipperName},
		{"shipper_email", req.ShipperEmail},
		{"shipper_phone", req.ShipperPhone},
		{"receiver_name", req.ReceiverName},
		{"origin", req.Origin},
		{"destination", req.Destination},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return appErrors.Validation(r.field)
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid shipment payload")
	}
	return nil
}

func applyShipmentRequest(s *models.Shipment, req models.ShipmentRequest) {
	s.ShipperName = strings.TrimSpace(req.ShipperName)
	s.ShipperAddress = req.ShipperAddress
	s.ShipperPhone = strings.TrimSpace(req.ShipperPhone)
	s.ShipperEmail = strings.TrimSpace(req.ShipperEmail)
	s.ReceiverName = strings.TrimSpace(req.ReceiverName)
	s.ReceiverAddress = req.ReceiverAddress
	s.ReceiverPhone = req.ReceiverPhone
	s.ReceiverEmail = req.ReceiverEmail
	s.Origin = strings.TrimSpace(req.Origin)
	s.Destination = strings.TrimSpace(req.Destination)
	s.Packages = req.Packages
	if s.Packages == 0 {
		s.Packages = 1
	}
	s.TotalWeight = req.TotalWeight
	s.Product = req.Product
	s.Quantity = req.Quantity
	if s.Quantity == 0 {
		s.Quantity = 1
	}
	s.PaymentMode = strings.TrimSpace(req.PaymentMode)
	if s.PaymentMode == "" {
		s.PaymentMode = defaultPaymentMode
	}
	s.TotalFreight = req.TotalFreight
	s.ExpectedDelivery = req.ExpectedDelivery
	s.DepartureTime = req.DepartureTime
	s.PickupDate = req.PickupDate
	s.PickupTime = req.PickupTime
	s.Comments = req.Comments
}
