package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/repository"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

var slugSeparators = regexp.MustCompile(`[\s_]+`)

// Slugify lower-cases the name and joins words with dashes.
func Slugify(name string) string {
	return slugSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ReferenceService manages locations, zones and rate tables.
type ReferenceService struct {
	locations     repository.LocationStore
	zones         repository.ZoneStore
	shippingRates repository.ShippingRateStore
	pickupRates   repository.PickupRateStore
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewReferenceService constructs a ReferenceService from the repository bundle.
func NewReferenceService(repos *repository.Repositories, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ReferenceService{
		locations:     repos.Locations,
		zones:         repos.Zones,
		shippingRates: repos.ShippingRates,
		pickupRates:   repos.PickupRates,
		validator:     validate,
		logger:        logger,
	}
}

// ListLocations returns locations ordered by name.
func (s *ReferenceService) ListLocations(ctx context.Context) ([]models.Location, error) {
	items, err := s.locations.List(ctx)
	if err != nil {
		return nil, storeError(err, "locations", "list")
	}
	return nonNil(items), nil
}

// GetLocation returns a location by id.
func (s *ReferenceService) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	item, err := s.locations.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "location", "load")
	}
	return item, nil
}

// CreateLocation stores a new location. An empty slug is derived from the name.
func (s *ReferenceService) CreateLocation(ctx context.Context, req models.LocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid location payload")
	}
	location := &models.Location{}
	applyLocation(location, req)
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, storeError(err, "location", "create")
	}
	return location, nil
}

// UpdateLocation rewrites a location.
func (s *ReferenceService) UpdateLocation(ctx context.Context, id int64, req models.LocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid location payload")
	}
	location := &models.Location{ID: id}
	applyLocation(location, req)
	if err := s.locations.Update(ctx, location); err != nil {
		return nil, storeError(err, "location", "update")
	}
	return location, nil
}

// DeleteLocation removes a location.
func (s *ReferenceService) DeleteLocation(ctx context.Context, id int64) error {
	return storeError(s.locations.Delete(ctx, id), "location", "delete")
}

func applyLocation(l *models.Location, req models.LocationRequest) {
	l.Name = strings.TrimSpace(req.Name)
	l.Slug = slugOrName(req.Slug, l.Name)
	l.Country = strings.TrimSpace(req.Country)
	if l.Country == "" {
		l.Country = "France"
	}
}

// ListZones returns zones ordered by name.
func (s *ReferenceService) ListZones(ctx context.Context) ([]models.Zone, error) {
	items, err := s.zones.List(ctx)
	if err != nil {
		return nil, storeError(err, "zones", "list")
	}
	return nonNil(items), nil
}

// GetZone returns a zone by id.
func (s *ReferenceService) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	item, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "zone", "load")
	}
	return item, nil
}

// CreateZone stores a new zone.
func (s *ReferenceService) CreateZone(ctx context.Context, req models.ZoneRequest) (*models.Zone, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid zone payload")
	}
	zone := &models.Zone{}
	applyZone(zone, req)
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, storeError(err, "zone", "create")
	}
	return zone, nil
}

// UpdateZone rewrites a zone.
func (s *ReferenceService) UpdateZone(ctx context.Context, id int64, req models.ZoneRequest) (*models.Zone, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid zone payload")
	}
	zone := &models.Zone{ID: id}
	applyZone(zone, req)
	if err := s.zones.Update(ctx, zone); err != nil {
		return nil, storeError(err, "zone", "update")
	}
	return zone, nil
}

// DeleteZone removes a zone.
func (s *ReferenceService) DeleteZone(ctx context.Context, id int64) error {
	return storeError(s.zones.Delete(ctx, id), "zone", "delete")
}

func applyZone(z *models.Zone, req models.ZoneRequest) {
	z.Name = strings.TrimSpace(req.Name)
	z.Slug = slugOrName(req.Slug, z.Name)
	z.Locations = normaliseList(req.Locations)
	z.Description = strings.TrimSpace(req.Description)
}

// ListShippingRates returns shipping rates ordered by name.
func (s *ReferenceService) ListShippingRates(ctx context.Context) ([]models.ShippingRate, error) {
	items, err := s.shippingRates.List(ctx)
	if err != nil {
		return nil, storeError(err, "shipping rates", "list")
	}
	return nonNil(items), nil
}

// GetShippingRate returns a shipping rate by id.
func (s *ReferenceService) GetShippingRate(ctx context.Context, id int64) (*models.ShippingRate, error) {
	item, err := s.shippingRates.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "shipping rate", "load")
	}
	return item, nil
}

// CreateShippingRate stores a new shipping rate.
func (s *ReferenceService) CreateShippingRate(ctx context.Context, req models.ShippingRateRequest) (*models.ShippingRate, error) {
	rate := &models.ShippingRate{}
	if err := s.applyShippingRate(rate, req); err != nil {
		return nil, err
	}
	if err := s.shippingRates.Create(ctx, rate); err != nil {
		return nil, storeError(err, "shipping rate", "create")
	}
	return rate, nil
}

// UpdateShippingRate rewrites a shipping rate.
func (s *ReferenceService) UpdateShippingRate(ctx context.Context, id int64, req models.ShippingRateRequest) (*models.ShippingRate, error) {
	rate := &models.ShippingRate{ID: id}
	if err := s.applyShippingRate(rate, req); err != nil {
		return nil, err
	}
	if err := s.shippingRates.Update(ctx, rate); err != nil {
		return nil, storeError(err, "shipping rate", "update")
	}
	return rate, nil
}

// DeleteShippingRate removes a shipping rate.
func (s *ReferenceService) DeleteShippingRate(ctx context.Context, id int64) error {
	return storeError(s.shippingRates.Delete(ctx, id), "shipping rate", "delete")
}

func (s *ReferenceService) applyShippingRate(r *models.ShippingRate, req models.ShippingRateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid shipping rate payload")
	}
	if err := checkWeightBand(req.MinWeight, req.MaxWeight); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(req.Name)
	r.Type = req.Type
	r.MinWeight = req.MinWeight
	r.MaxWeight = req.MaxWeight
	r.Rate = req.Rate
	r.Insurance = req.Insurance
	r.Description = strings.TrimSpace(req.Description)
	return nil
}

// ListPickupRates returns pickup rates ordered by zone.
func (s *ReferenceService) ListPickupRates(ctx context.Context) ([]models.PickupRate, error) {
	items, err := s.pickupRates.List(ctx)
	if err != nil {
		return nil, storeError(err, "pickup rates", "list")
	}
	return nonNil(items), nil
}

// GetPickupRate returns a pickup rate by id.
func (s *ReferenceService) GetPickupRate(ctx context.Context, id int64) (*models.PickupRate, error) {
	item, err := s.pickupRates.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "pickup rate", "load")
	}
	return item, nil
}

// CreatePickupRate stores a new pickup rate.
func (s *ReferenceService) CreatePickupRate(ctx context.Context, req models.PickupRateRequest) (*models.PickupRate, error) {
	rate := &models.PickupRate{}
	if err := s.applyPickupRate(rate, req); err != nil {
		return nil, err
	}
	if err := s.pickupRates.Create(ctx, rate); err != nil {
		return nil, storeError(err, "pickup rate", "create")
	}
	return rate, nil
}

// UpdatePickupRate rewrites a pickup rate.
func (s *ReferenceService) UpdatePickupRate(ctx context.Context, id int64, req models.PickupRateRequest) (*models.PickupRate, error) {
	rate := &models.PickupRate{ID: id}
	if err := s.applyPickupRate(rate, req); err != nil {
		return nil, err
	}
	if err := s.pickupRates.Update(ctx, rate); err != nil {
		return nil, storeError(err, "pickup rate", "update")
	}
	return rate, nil
}

// DeletePickupRate removes a pickup rate.
func (s *ReferenceService) DeletePickupRate(ctx context.Context, id int64) error {
	return storeError(s.pickupRates.Delete(ctx, id), "pickup rate", "delete")
}

func (s *ReferenceService) applyPickupRate(r *models.PickupRate, req models.PickupRateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid pickup rate payload")
	}
	if err := checkWeightBand(req.MinWeight, req.MaxWeight); err != nil {
		return err
	}
	r.Zone = strings.TrimSpace(req.Zone)
	r.MinWeight = req.MinWeight
	r.MaxWeight = req.MaxWeight
	r.Rate = req.Rate
	r.Description = strings.TrimSpace(req.Description)
	return nil
}

// checkWeightBand requires min <= max. A zero max leaves the band open.
func checkWeightBand(min, max float64) error {
	if max > 0 && min > max {
		return appErrors.InvalidField("max_weight", "max_weight must not be lower than min_weight")
	}
	return nil
}

func slugOrName(slug, name string) string {
	if slug = strings.TrimSpace(slug); slug != "" {
		return Slugify(slug)
	}
	return Slugify(name)
}

func normaliseList(raw string) string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
