package models

import "strings"

// Location is a named city or facility shipments travel between.
type Location struct {
	ID      int64  `db:"id" json:"id" bson:"_id"`
	Name    string `db:"name" json:"name" bson:"name"`
	Slug    string `db:"slug" json:"slug" bson:"slug"`
	Country string `db:"country" json:"country" bson:"country"`
}

// Zone groups locations under a comma separated list of names.
type Zone struct {
	ID          int64  `db:"id" json:"id" bson:"_id"`
	Name        string `db:"name" json:"name" bson:"name"`
	Slug        string `db:"slug" json:"slug" bson:"slug"`
	Locations   string `db:"locations" json:"locations" bson:"locations"`
	Description string `db:"description" json:"description" bson:"description"`
}

// Contains reports whether the zone lists the location name (case-insensitive).
func (z Zone) Contains(location string) bool {
	location = strings.TrimSpace(location)
	if location == "" {
		return false
	}
	for _, name := range strings.Split(z.Locations, ",") {
		if strings.EqualFold(strings.TrimSpace(name), location) {
			return true
		}
	}
	return false
}

// RateType distinguishes flat and per-kilogram shipping rates.
type RateType string

const (
	RateTypeFlat   RateType = "flat"
	RateTypeWeight RateType = "weight"
)

// ShippingRate is an operator-entered shipping tariff.
type ShippingRate struct {
	ID          int64    `db:"id" json:"id" bson:"_id"`
	Name        string   `db:"name" json:"name" bson:"name"`
	Type        RateType `db:"type" json:"type" bson:"type"`
	MinWeight   float64  `db:"min_weight" json:"min_weight" bson:"min_weight"`
	MaxWeight   float64  `db:"max_weight" json:"max_weight" bson:"max_weight"`
	Rate        float64  `db:"rate" json:"rate" bson:"rate"`
	Insurance   float64  `db:"insurance" json:"insurance" bson:"insurance"`
	Description string   `db:"description" json:"description" bson:"description"`
}

// Applies reports whether the rate covers the given weight. A zero max weight means unbounded.
func (r ShippingRate) Applies(weight float64) bool {
	if weight < r.MinWeight {
		return false
	}
	return r.MaxWeight <= 0 || weight <= r.MaxWeight
}

// Price returns the base price for the weight, excluding insurance.
func (r ShippingRate) Price(weight float64) float64 {
	if r.Type == RateTypeWeight {
		return r.Rate * weight
	}
	return r.Rate
}

// PickupRate is the pickup surcharge for a zone and weight band.
type PickupRate struct {
	ID          int64   `db:"id" json:"id" bson:"_id"`
	Zone        string  `db:"zone" json:"zone" bson:"zone"`
	MinWeight   float64 `db:"min_weight" json:"min_weight" bson:"min_weight"`
	MaxWeight   float64 `db:"max_weight" json:"max_weight" bson:"max_weight"`
	Rate        float64 `db:"rate" json:"rate" bson:"rate"`
	Description string  `db:"description" json:"description" bson:"description"`
}

// Applies reports whether the pickup band covers the weight.
func (r PickupRate) Applies(weight float64) bool {
	if weight < r.MinWeight {
		return false
	}
	return r.MaxWeight <= 0 || weight <= r.MaxWeight
}

// LocationRequest creates or edits a location. An empty slug is derived from the name.
type LocationRequest struct {
	Name    string `json:"name" validate:"required"`
	Slug    string `json:"slug"`
	Country string `json:"country"`
}

// ZoneRequest creates or edits a zone.
type ZoneRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Locations   string `json:"locations"`
	Description string `json:"description"`
}

// ShippingRateRequest creates or edits a shipping rate.
type ShippingRateRequest struct {
	Name        string   `json:"name" validate:"required"`
	Type        RateType `json:"type" validate:"required,oneof=flat weight"`
	MinWeight   float64  `json:"min_weight" validate:"gte=0"`
	MaxWeight   float64  `json:"max_weight" validate:"gte=0"`
	Rate        float64  `json:"rate" validate:"gte=0"`
	Insurance   float64  `json:"insurance" validate:"gte=0"`
	Description string   `json:"description"`
}

// PickupRateRequest creates or edits a pickup rate.
type PickupRateRequest struct {
	Zone        string  `json:"zone" validate:"required"`
	MinWeight   float64 `json:"min_weight" validate:"gte=0"`
	MaxWeight   float64 `json:"max_weight" validate:"gte=0"`
	Rate        float64 `json:"rate" validate:"gte=0"`
	Description string  `json:"description"`
}
