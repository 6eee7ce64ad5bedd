package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/colisselect-api/internal/models"
)

// ZoneRepository provides database access for delivery zones.
type ZoneRepository struct {
	db *sqlx.DB
}

// NewZoneRepository creates a new instance of ZoneRepository.
func NewZoneRepository(db *sqlx.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) List(ctx context.Context) ([]models.Zone, error) {
	zones := make([]models.Zone, 0)
	if err := r.db.SelectContext(ctx, &zones, `SELECT id, name, slug, locations, description FROM zones ORDER BY name`); err != nil {
		return nil, translate("list zones", err)
	}
	return zones, nil
}

func (r *ZoneRepository) FindByID(ctx context.Context, id int64) (*models.Zone, error) {
	var zone models.Zone
	if err := r.db.GetContext(ctx, &zone, `SELECT id, name, slug, locations, description FROM zones WHERE id = $1`, id); err != nil {
		return nil, translate("find zone", err)
	}
	return &zone, nil
}

func (r *ZoneRepository) Create(ctx context.Context, zone *models.Zone) error {
	const query = `INSERT INTO zones (name, slug, locations, description) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &zone.ID, query, zone.Name, zone.Slug, zone.Locations, zone.Description); err != nil {
		return translate("create zone", err)
	}
	return nil
}

func (r *ZoneRepository) Update(ctx context.Context, zone *models.Zone) error {
	const query = `UPDATE zones SET name = :name, slug = :slug, locations = :locations, description = :description WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, zone)
	if err != nil {
		return translate("update zone", err)
	}
	return requireAffected("update zone", res)
}

func (r *ZoneRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return translate("delete zone", err)
	}
	return requireAffected("delete zone", res)
}

func (r *ZoneRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM zones`); err != nil {
		return 0, translate("count zones", err)
	}
	return total, nil
}
