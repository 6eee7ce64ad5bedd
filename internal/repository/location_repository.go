package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/colisselect-api/internal/models"
)

// LocationRepository provides database access for locations.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository creates a new instance of LocationRepository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns all locations ordered by name.
func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	locations := make([]models.Location, 0)
	if err := r.db.SelectContext(ctx, &locations, `SELECT id, name, slug, country FROM locations ORDER BY name`); err != nil {
		return nil, translate("list locations", err)
	}
	return locations, nil
}

// FindByID returns a location by identifier.
func (r *LocationRepository) FindByID(ctx context.Context, id int64) (*models.Location, error) {
	var location models.Location
	if err := r.db.GetContext(ctx, &location, `SELECT id, name, slug, country FROM locations WHERE id = $1`, id); err != nil {
		return nil, translate("find location", err)
	}
	return &location, nil
}

// Create inserts a location and sets its id.
func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	const query = `INSERT INTO locations (name, slug, country) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &location.ID, query, location.Name, location.Slug, location.Country); err != nil {
		return translate("create location", err)
	}
	return nil
}

// Update rewrites a location.
func (r *LocationRepository) Update(ctx context.Context, location *models.Location) error {
	const query = `UPDATE locations SET name = :name, slug = :slug, country = :country WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, location)
	if err != nil {
		return translate("update location", err)
	}
	return requireAffected("update location", res)
}

// Delete removes a location.
func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return translate("delete location", err)
	}
	return requireAffected("delete location", res)
}

// Count returns the number of stored locations.
func (r *LocationRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM locations`); err != nil {
		return 0, translate("count locations", err)
	}
	return total, nil
}
