package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type postgresHealth struct {
	db *sqlx.DB
}

func (h postgresHealth) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h postgresHealth) Close(context.Context) error {
	return h.db.Close()
}

// NewPostgresRepositories wires every store onto one PostgreSQL handle.
func NewPostgresRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Shipments:     NewShipmentRepository(db),
		History:       NewTrackingHistoryRepository(db),
		Locations:     NewLocationRepository(db),
		Zones:         NewZoneRepository(db),
		ShippingRates: NewShippingRateRepository(db),
		PickupRates:   NewPickupRateRepository(db),
		Users:         NewUserRepository(db),
		Health:        postgresHealth{db: db},
	}
}
