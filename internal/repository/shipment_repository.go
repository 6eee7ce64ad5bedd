package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/colisselect-api/internal/models"
)

const shipmentColumns = `id, tracking_number, shipper_name, shipper_address, shipper_phone, shipper_email, receiver_name, receiver_address, receiver_phone, receiver_email, origin, destination, status, packages, total_weight, product, quantity, payment_mode, total_freight, expected_delivery, departure_time, pickup_date, pickup_time, comments, date_created`

const insertShipmentQuery = `INSERT INTO shipments (tracking_number, shipper_name, shipper_address, shipper_phone, shipper_email, receiver_name, receiver_address, receiver_phone, receiver_email, origin, destination, status, packages, total_weight, product, quantity, payment_mode, total_freight, expected_delivery, departure_time, pickup_date, pickup_time, comments, date_created) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24) RETURNING id`

const insertEventQuery = `INSERT INTO tracking_history (shipment_id, date_time, location, status, description, latitude, longitude) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

// ShipmentRepository stores shipments in PostgreSQL.
type ShipmentRepository struct {
	db *sqlx.DB
}

// NewShipmentRepository creates a new instance of ShipmentRepository.
func NewShipmentRepository(db *sqlx.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// List returns shipments newest first with the total matching count.
func (r *ShipmentRepository) List(ctx context.Context, filter models.ShipmentFilter) ([]models.Shipment, int, error) {
	baseQuery := `FROM shipments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(COALESCE(tracking_number, '')) LIKE $%d OR LOWER(shipper_name) LIKE $%d OR LOWER(receiver_name) LIKE $%d OR LOWER(origin) LIKE $%d OR LOWER(destination) LIKE $%d)", n, n, n, n, n))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY date_created DESC, id DESC", shipmentColumns, baseQuery)
	if !filter.Unpaged {
		page, pageSize := NormalizePage(filter.Page, filter.PageSize)
		listQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}

	var shipments []models.Shipment
	if err := r.db.SelectContext(ctx, &shipments, listQuery, args...); err != nil {
		return nil, 0, translate("list shipments", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, translate("count shipments", err)
	}

	return shipments, total, nil
}

// FindByID returns a shipment by identifier.
func (r *ShipmentRepository) FindByID(ctx context.Context, id int64) (*models.Shipment, error) {
	query := fmt.Sprintf("SELECT %s FROM shipments WHERE id = $1", shipmentColumns)
	var shipment models.Shipment
	if err := r.db.GetContext(ctx, &shipment, query, id); err != nil {
		return nil, translate("find shipment by id", err)
	}
	return &shipment, nil
}

// FindByTrackingNumber returns the shipment carrying the tracking number.
func (r *ShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	query := fmt.Sprintf("SELECT %s FROM shipments WHERE tracking_number = $1", shipmentColumns)
	var shipment models.Shipment
	if err := r.db.GetContext(ctx, &shipment, query, trackingNumber); err != nil {
		return nil, translate("find shipment by tracking number", err)
	}
	return &shipment, nil
}

// CreateWithEvent inserts the shipment and its first history event in one transaction.
func (r *ShipmentRepository) CreateWithEvent(ctx context.Context, shipment *models.Shipment, event *models.TrackingEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create shipment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &shipment.ID, insertShipmentQuery, shipmentArgs(shipment)...); err != nil {
		return translate("create shipment", err)
	}

	event.ShipmentID = shipment.ID
	if err = insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create shipment: %w", err)
	}
	return nil
}

// Update writes the editable shipment fields.
func (r *ShipmentRepository) Update(ctx context.Context, shipment *models.Shipment) error {
	const query = `UPDATE shipments SET shipper_name = :shipper_name, shipper_address = :shipper_address, shipper_phone = :shipper_phone, shipper_email = :shipper_email, receiver_name = :receiver_name, receiver_address = :receiver_address, receiver_phone = :receiver_phone, receiver_email = :receiver_email, origin = :origin, destination = :destination, packages = :packages, total_weight = :total_weight, product = :product, quantity = :quantity, payment_mode = :payment_mode, total_freight = :total_freight, expected_delivery = :expected_delivery, departure_time = :departure_time, pickup_date = :pickup_date, pickup_time = :pickup_time, comments = :comments WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, shipment)
	if err != nil {
		return translate("update shipment", err)
	}
	return requireAffected("update shipment", res)
}

// Delete removes a shipment. The foreign key cascades to its history.
func (r *ShipmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return translate("delete shipment", err)
	}
	return requireAffected("delete shipment", res)
}

// Confirm sets the shipment to processing and appends the confirmation event atomically.
// An existing tracking number is kept.
func (r *ShipmentRepository) Confirm(ctx context.Context, id int64, params models.ConfirmParams, event *models.TrackingEvent) (*models.Shipment, error) {
	query := fmt.Sprintf(`UPDATE shipments SET status = $2, tracking_number = COALESCE(tracking_number, $3), total_freight = $4, expected_delivery = $5, comments = $6 WHERE id = $1 RETURNING %s`, shipmentColumns)
	return r.transition(ctx, "confirm shipment", event, query,
		id, models.StatusProcessing, params.TrackingNumber, params.TotalFreight, params.ExpectedDelivery, params.Comments)
}

// Reject sets the shipment to rejected, overwrites its comments and appends the rejection event atomically.
func (r *ShipmentRepository) Reject(ctx context.Context, id int64, comments string, event *models.TrackingEvent) (*models.Shipment, error) {
	query := fmt.Sprintf(`UPDATE shipments SET status = $2, comments = $3 WHERE id = $1 RETURNING %s`, shipmentColumns)
	return r.transition(ctx, "reject shipment", event, query, id, models.StatusRejected, comments)
}

func (r *ShipmentRepository) transition(ctx context.Context, op string, event *models.TrackingEvent, query string, args ...interface{}) (_ *models.Shipment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin %s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var updated models.Shipment
	if err = tx.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, translate(op, err)
	}

	event.ShipmentID = updated.ID
	if err = insertEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", op, err)
	}
	return &updated, nil
}

// CountByStatus groups shipment counts by status.
func (r *ShipmentRepository) CountByStatus(ctx context.Context, since time.Time) (map[models.ShipmentStatus]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM shipments`
	var args []interface{}
	if !since.IsZero() {
		query += ` WHERE date_created >= $1`
		args = append(args, since)
	}
	query += ` GROUP BY status`

	var rows []struct {
		Status models.ShipmentStatus `db:"status"`
		Count  int                   `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate("count shipments by status", err)
	}

	counts := make(map[models.ShipmentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func shipmentArgs(s *models.Shipment) []interface{} {
	return []interface{}{
		s.TrackingNumber, s.ShipperName, s.ShipperAddress, s.ShipperPhone, s.ShipperEmail,
		s.ReceiverName, s.ReceiverAddress, s.ReceiverPhone, s.ReceiverEmail,
		s.Origin, s.Destination, s.Status, s.Packages, s.TotalWeight, s.Product, s.Quantity,
		s.PaymentMode, s.TotalFreight, s.ExpectedDelivery, s.DepartureTime, s.PickupDate, s.PickupTime,
		s.Comments, s.DateCreated,
	}
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, event *models.TrackingEvent) error {
	err := tx.GetContext(ctx, &event.ID, insertEventQuery,
		event.ShipmentID, event.DateTime, event.Location, event.Status, event.Description, event.Latitude, event.Longitude)
	if err != nil {
		return translate("insert tracking event", err)
	}
	return nil
}

// NormalizePage defaults page to 1 and any page size outside 1..100 to 20.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
