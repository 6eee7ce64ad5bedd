package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/colisselect-api/internal/models"
)

// ShippingRateRepository provides database access for shipping tariffs.
type ShippingRateRepository struct {
	db *sqlx.DB
}

// NewShippingRateRepository creates a new instance of ShippingRateRepository.
func NewShippingRateRepository(db *sqlx.DB) *ShippingRateRepository {
	return &ShippingRateRepository{db: db}
}

func (r *ShippingRateRepository) List(ctx context.Context) ([]models.ShippingRate, error) {
	const query = `SELECT id, name, type, min_weight, max_weight, rate, insurance, description FROM shipping_rates ORDER BY name, id`
	rates := make([]models.ShippingRate, 0)
	if err := r.db.SelectContext(ctx, &rates, query); err != nil {
		return nil, translate("list shipping rates", err)
	}
	return rates, nil
}

func (r *ShippingRateRepository) FindByID(ctx context.Context, id int64) (*models.ShippingRate, error) {
	const query = `SELECT id, name, type, min_weight, max_weight, rate, insurance, description FROM shipping_rates WHERE id = $1`
	var rate models.ShippingRate
	if err := r.db.GetContext(ctx, &rate, query, id); err != nil {
		return nil, translate("find shipping rate", err)
	}
	return &rate, nil
}

func (r *ShippingRateRepository) Create(ctx context.Context, rate *models.ShippingRate) error {
	const query = `INSERT INTO shipping_rates (name, type, min_weight, max_weight, rate, insurance, description) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &rate.ID, query, rate.Name, rate.Type, rate.MinWeight, rate.MaxWeight, rate.Rate, rate.Insurance, rate.Description); err != nil {
		return translate("create shipping rate", err)
	}
	return nil
}

func (r *ShippingRateRepository) Update(ctx context.Context, rate *models.ShippingRate) error {
	const query = `UPDATE shipping_rates SET name = :name, type = :type, min_weight = :min_weight, max_weight = :max_weight, rate = :rate, insurance = :insurance, description = :description WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rate)
	if err != nil {
		return translate("update shipping rate", err)
	}
	return requireAffected("update shipping rate", res)
}

func (r *ShippingRateRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shipping_rates WHERE id = $1`, id)
	if err != nil {
		return translate("delete shipping rate", err)
	}
	return requireAffected("delete shipping rate", res)
}

func (r *ShippingRateRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM shipping_rates`); err != nil {
		return 0, translate("count shipping rates", err)
	}
	return total, nil
}

// PickupRateRepository provides database access for pickup surcharges.
type PickupRateRepository struct {
	db *sqlx.DB
}

// NewPickupRateRepository creates a new instance of PickupRateRepository.
func NewPickupRateRepository(db *sqlx.DB) *PickupRateRepository {
	return &PickupRateRepository{db: db}
}

func (r *PickupRateRepository) List(ctx context.Context) ([]models.PickupRate, error) {
	const query = `SELECT id, zone, min_weight, max_weight, rate, description FROM pickup_rates ORDER BY zone, min_weight`
	rates := make([]models.PickupRate, 0)
	if err := r.db.SelectContext(ctx, &rates, query); err != nil {
		return nil, translate("list pickup rates", err)
	}
	return rates, nil
}

func (r *PickupRateRepository) FindByID(ctx context.Context, id int64) (*models.PickupRate, error) {
	const query = `SELECT id, zone, min_weight, max_weight, rate, description FROM pickup_rates WHERE id = $1`
	var rate models.PickupRate
	if err := r.db.GetContext(ctx, &rate, query, id); err != nil {
		return nil, translate("find pickup rate", err)
	}
	return &rate, nil
}

func (r *PickupRateRepository) Create(ctx context.Context, rate *models.PickupRate) error {
	const query = `INSERT INTO pickup_rates (zone, min_weight, max_weight, rate, description) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &rate.ID, query, rate.Zone, rate.MinWeight, rate.MaxWeight, rate.Rate, rate.Description); err != nil {
		return translate("create pickup rate", err)
	}
	return nil
}

func (r *PickupRateRepository) Update(ctx context.Context, rate *models.PickupRate) error {
	const query = `UPDATE pickup_rates SET zone = :zone, min_weight = :min_weight, max_weight = :max_weight, rate = :rate, description = :description WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rate)
	if err != nil {
		return translate("update pickup rate", err)
	}
	return requireAffected("update pickup rate", res)
}

func (r *PickupRateRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pickup_rates WHERE id = $1`, id)
	if err != nil {
		return translate("delete pickup rate", err)
	}
	return requireAffected("delete pickup rate", res)
}

func (r *PickupRateRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pickup_rates`); err != nil {
		return 0, translate("count pickup rates", err)
	}
	return total, nil
}
