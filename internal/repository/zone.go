package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetgazer/internal/models"
)

// ZoneRepository 地理围栏仓库
type ZoneRepository struct {
	db *DB
}

// NewZoneRepository 创建围栏仓库
func NewZoneRepository(db *DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// Create 创建围栏
func (r *ZoneRepository) Create(ctx context.Context, z *models.Zone) error {
	query := `
		INSERT INTO zones (name, category, latitude, longitude, radius_m)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		z.Name,
		z.Category,
		z.Latitude,
		z.Longitude,
		z.RadiusM,
	).Scan(&z.ID)

	if err != nil {
		return fmt.Errorf("insert zone: %w", err)
	}
	return nil
}

// GetByID 获取围栏
func (r *ZoneRepository) GetByID(ctx context.Context, id int64) (*models.Zone, error) {
	query := `SELECT id, name, COALESCE(category, ''), latitude, longitude, radius_m FROM zones WHERE id = $1`
	z := &models.Zone{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&z.ID,
		&z.Name,
		&z.Category,
		&z.Latitude,
		&z.Longitude,
		&z.RadiusM,
	)
	if err != nil {
		return nil, fmt.Errorf("get zone: %w", err)
	}
	return z, nil
}

// ListActive 获取全部围栏，按 ID 升序
// 每次摄入按需读取，不做长期缓存：围栏定义可能在两次调用之间变化
func (r *ZoneRepository) ListActive(ctx context.Context) ([]models.Zone, error) {
	query := `SELECT id, name, COALESCE(category, ''), latitude, longitude, radius_m FROM zones ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var z models.Zone
		err := rows.Scan(
			&z.ID,
			&z.Name,
			&z.Category,
			&z.Latitude,
			&z.Longitude,
			&z.RadiusM,
		)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, z)
	}

	return zones, nil
}

// Update 更新围栏
func (r *ZoneRepository) Update(ctx context.Context, z *models.Zone) error {
	query := `UPDATE zones SET name = $1, category = $2, latitude = $3, longitude = $4, radius_m = $5 WHERE id = $6`
	tag, err := r.db.Pool.Exec(ctx, query, z.Name, z.Category, z.Latitude, z.Longitude, z.RadiusM, z.ID)
	if err != nil {
		return fmt.Errorf("update zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete 删除围栏
func (r *ZoneRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
