package service

import (
	"context"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/repository"
)

const volumetricDivisor = 5000.0

type serviceLevel struct {
	code      string
	name      string
	delivery  string
	baseRatio float64
	volRatio  float64
}

var serviceLevels = []serviceLevel{
	{code: "standard", name: "Standard Delivery", delivery: "3-5 business days", baseRatio: 1, volRatio: 0.4},
	{code: "express", name: "Express Delivery", delivery: "1-2 business days", baseRatio: 2, volRatio: 0.5},
	{code: "economy", name: "Economy Delivery", delivery: "5-7 business days", baseRatio: 0.7, volRatio: 0.3},
}

// QuoteService prices parcels from the service levels and the operator rate tables.
type QuoteService struct {
	shippingRates repository.ShippingRateStore
	zones         repository.ZoneStore
	pickupRates   repository.PickupRateStore
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewQuoteService constructs a QuoteService.
func NewQuoteService(repos *repository.Repositories, validate *validator.Validate, logger *zap.Logger) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &QuoteService{
		shippingRates: repos.ShippingRates,
		zones:         repos.Zones,
		pickupRates:   repos.PickupRates,
		validator:     validate,
		logger:        logger,
	}
}

// Quote prices the parcel. Weight is per package in kilograms, dimensions in centimetres.
func (s *QuoteService) Quote(ctx context.Context, req models.QuoteRequest) (*models.Quote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid quote payload")
	}
	packages := req.Packages
	if packages < 1 {
		packages = 1
	}

	volume := req.Length * req.Width * req.Height / volumetricDivisor
	actual := round(req.Weight*float64(packages), 3)
	volumetric := round(round(volume, 3)*float64(packages), 3)
	quote := &models.Quote{
		ActualWeight:     actual,
		VolumetricWeight: volumetric,
		TaxedWeight:      math.Max(actual, volumetric),
		Options:          serviceOptions(req.Weight, volume),
		Rates:            []models.RateQuote{},
	}

	rates, err := s.shippingRates.List(ctx)
	if err != nil {
		return nil, storeError(err, "shipping rates", "list")
	}
	zone, err := s.originZone(ctx, req.Origin)
	if err != nil {
		return nil, err
	}
	var pickup float64
	if zone != nil {
		quote.OriginZone = zone.Name
		if pickup, err = s.pickupSurcharge(ctx, zone.Name, quote.TaxedWeight); err != nil {
			return nil, err
		}
	}

	for _, rate := range rates {
		if !rate.Applies(quote.TaxedWeight) {
			continue
		}
		base := round(rate.Price(quote.TaxedWeight), 2)
		quote.Rates = append(quote.Rates, models.RateQuote{
			RateID:    rate.ID,
			Name:      rate.Name,
			Type:      rate.Type,
			Base:      base,
			Insurance: rate.Insurance,
			Pickup:    pickup,
			Total:     round(base+rate.Insurance+pickup, 2),
		})
	}
	sort.SliceStable(quote.Rates, func(i, j int) bool { return quote.Rates[i].Total < quote.Rates[j].Total })
	return quote, nil
}

func (s *QuoteService) originZone(ctx context.Context, origin string) (*models.Zone, error) {
	if origin == "" {
		return nil, nil
	}
	zones, err := s.zones.List(ctx)
	if err != nil {
		return nil, storeError(err, "zones", "list")
	}
	for i := range zones {
		if zones[i].Contains(origin) {
			return &zones[i], nil
		}
	}
	return nil, nil
}

func (s *QuoteService) pickupSurcharge(ctx context.Context, zone string, weight float64) (float64, error) {
	rates, err := s.pickupRates.List(ctx)
	if err != nil {
		return 0, storeError(err, "pickup rates", "list")
	}
	for _, rate := range rates {
		if rate.Zone == zone && rate.Applies(weight) {
			return rate.Rate, nil
		}
	}
	return 0, nil
}

func serviceOptions(weight, volume float64) []models.QuoteOption {
	base := weight * 5
	options := make([]models.QuoteOption, 0, len(serviceLevels))
	for _, level := range serviceLevels {
		options = append(options, models.QuoteOption{
			Code:              level.code,
			Name:              level.name,
			Price:             round(base*level.baseRatio+volume*level.volRatio, 2),
			EstimatedDelivery: level.delivery,
		})
	}
	return options
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
