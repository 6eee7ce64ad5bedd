package repository

import (
	"context"
	"time"

	"github.com/noah-isme/colisselect-api/internal/models"
)

// ShipmentStore persists shipments. Multi-row writes are atomic.
type ShipmentStore interface {
	List(ctx context.Context, filter models.ShipmentFilter) ([]models.Shipment, int, error)
	FindByID(ctx context.Context, id int64) (*models.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	// CreateWithEvent inserts the shipment and its first history event together.
	CreateWithEvent(ctx context.Context, shipment *models.Shipment, event *models.TrackingEvent) error
	// Update writes the editable fields. Status and tracking number are left untouched.
	Update(ctx context.Context, shipment *models.Shipment) error
	// Delete removes the shipment and its history.
	Delete(ctx context.Context, id int64) error
	// Confirm moves the shipment to processing, assigns the tracking number when unset and appends event.
	Confirm(ctx context.Context, id int64, params models.ConfirmParams, event *models.TrackingEvent) (*models.Shipment, error)
	// Reject moves the shipment to rejected, overwrites comments and appends event.
	Reject(ctx context.Context, id int64, comments string, event *models.TrackingEvent) (*models.Shipment, error)
	// CountByStatus counts shipments created at or after since. A zero since counts everything.
	CountByStatus(ctx context.Context, since time.Time) (map[models.ShipmentStatus]int, error)
}

// TrackingHistoryStore persists the per-shipment event ledger.
type TrackingHistoryStore interface {
	// ListByShipment returns events newest first, ties broken by id.
	ListByShipment(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error)
	FindByID(ctx context.Context, id int64) (*models.TrackingEvent, error)
	// Append inserts event and, when syncStatus is set, copies its status onto the shipment in the same transaction.
	Append(ctx context.Context, event *models.TrackingEvent, syncStatus bool) error
	// Update rewrites event and fills its ShipmentID. syncStatus behaves as in Append.
	Update(ctx context.Context, event *models.TrackingEvent, syncStatus bool) error
	Delete(ctx context.Context, id int64) (*models.TrackingEvent, error)
}

type LocationStore interface {
	List(ctx context.Context) ([]models.Location, error)
	FindByID(ctx context.Context, id int64) (*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Update(ctx context.Context, location *models.Location) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type ZoneStore interface {
	List(ctx context.Context) ([]models.Zone, error)
	FindByID(ctx context.Context, id int64) (*models.Zone, error)
	Create(ctx context.Context, zone *models.Zone) error
	Update(ctx context.Context, zone *models.Zone) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type ShippingRateStore interface {
	List(ctx context.Context) ([]models.ShippingRate, error)
	FindByID(ctx context.Context, id int64) (*models.ShippingRate, error)
	Create(ctx context.Context, rate *models.ShippingRate) error
	Update(ctx context.Context, rate *models.ShippingRate) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type PickupRateStore interface {
	List(ctx context.Context) ([]models.PickupRate, error)
	FindByID(ctx context.Context, id int64) (*models.PickupRate, error)
	Create(ctx context.Context, rate *models.PickupRate) error
	Update(ctx context.Context, rate *models.PickupRate) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type UserStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
	Delete(ctx context.Context, id int64) error
}

// Health reports backend liveness and releases its resources.
type Health interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Repositories bundles one backend's stores. It is built once at startup.
type Repositories struct {
	Shipments     ShipmentStore
	History       TrackingHistoryStore
	Locations     LocationStore
	Zones         ZoneStore
	ShippingRates ShippingRateStore
	PickupRates   PickupRateStore
	Users         UserStore
	Health        Health
}

// Ping checks the backend connection.
func (r *Repositories) Ping(ctx context.Context) error {
	if r == nil || r.Health == nil {
		return nil
	}
	return r.Health.Ping(ctx)
}

// Close releases the backend connection.
func (r *Repositories) Close(ctx context.Context) error {
	if r == nil || r.Health == nil {
		return nil
	}
	return r.Health.Close(ctx)
}
