package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// PlatformRepository handles data access for dim_platform.
type PlatformRepository struct {
	db *sqlx.DB
}

// NewPlatformRepository creates a new PlatformRepository.
func NewPlatformRepository(db *sqlx.DB) *PlatformRepository {
	return &PlatformRepository{db: db}
}

// Upsert inserts a platform or refreshes its name.
func (r *PlatformRepository) Upsert(ctx context.Context, p *models.Platform) error {
	const q = `
        INSERT INTO dim_platform (platform_id, name)
        VALUES ($1, $2)
        ON CONFLICT (platform_id) DO UPDATE SET
            name = EXCLUDED.name`

	_, err := r.db.ExecContext(ctx, q, p.PlatformID, p.Name)
	return err
}

// List returns all platforms currently in the BI store.
func (r *PlatformRepository) List(ctx context.Context) ([]models.Platform, error) {
	const q = `SELECT platform_id, name FROM dim_platform ORDER BY platform_id`

	var platforms []models.Platform
	if err := r.db.SelectContext(ctx, &platforms, q); err != nil {
		return nil, err
	}
	return platforms, nil
}
