package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/colisselect-api/internal/models"
)

const trackingEventColumns = `id, shipment_id, date_time, location, status, description, latitude, longitude`

// TrackingHistoryRepository stores tracking events in PostgreSQL.
type TrackingHistoryRepository struct {
	db *sqlx.DB
}

// NewTrackingHistoryRepository creates a new instance of TrackingHistoryRepository.
func NewTrackingHistoryRepository(db *sqlx.DB) *TrackingHistoryRepository {
	return &TrackingHistoryRepository{db: db}
}

// ListByShipment returns the ledger of a shipment, newest first.
func (r *TrackingHistoryRepository) ListByShipment(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM tracking_history WHERE shipment_id = $1 ORDER BY date_time DESC, id DESC", trackingEventColumns)
	events := make([]models.TrackingEvent, 0)
	if err := r.db.SelectContext(ctx, &events, query, shipmentID); err != nil {
		return nil, translate("list tracking history", err)
	}
	return events, nil
}

// FindByID returns a single tracking event.
func (r *TrackingHistoryRepository) FindByID(ctx context.Context, id int64) (*models.TrackingEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM tracking_history WHERE id = $1", trackingEventColumns)
	var event models.TrackingEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, translate("find tracking event", err)
	}
	return &event, nil
}

// Append inserts the event after locking its shipment row.
func (r *TrackingHistoryRepository) Append(ctx context.Context, event *models.TrackingEvent, syncStatus bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tracking event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var shipmentID int64
	if err = tx.GetContext(ctx, &shipmentID, `SELECT id FROM shipments WHERE id = $1 FOR UPDATE`, event.ShipmentID); err != nil {
		return translate("lock shipment", err)
	}

	if err = insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if syncStatus {
		if err = syncShipmentStatus(ctx, tx, event.ShipmentID, event.Status); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit append tracking event: %w", err)
	}
	return nil
}

// Update rewrites the event and fills event.ShipmentID from the stored row.
func (r *TrackingHistoryRepository) Update(ctx context.Context, event *models.TrackingEvent, syncStatus bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tracking event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE tracking_history SET date_time = $2, location = $3, status = $4, description = $5, latitude = $6, longitude = $7 WHERE id = $1 RETURNING shipment_id`
	if err = tx.GetContext(ctx, &event.ShipmentID, query,
		event.ID, event.DateTime, event.Location, event.Status, event.Description, event.Latitude, event.Longitude); err != nil {
		return translate("update tracking event", err)
	}

	if syncStatus {
		if err = syncShipmentStatus(ctx, tx, event.ShipmentID, event.Status); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update tracking event: %w", err)
	}
	return nil
}

// Delete removes the event and returns it.
func (r *TrackingHistoryRepository) Delete(ctx context.Context, id int64) (*models.TrackingEvent, error) {
	query := fmt.Sprintf("DELETE FROM tracking_history WHERE id = $1 RETURNING %s", trackingEventColumns)
	var event models.TrackingEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, translate("delete tracking event", err)
	}
	return &event, nil
}

func syncShipmentStatus(ctx context.Context, tx *sqlx.Tx, shipmentID int64, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE shipments SET status = $2 WHERE id = $1`, shipmentID, status)
	if err != nil {
		return translate("sync shipment status", err)
	}
	return requireAffected("sync shipment status", res)
}
