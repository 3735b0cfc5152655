package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetgazer/internal/models"
)

// AssetRepository 资产数据仓库
type AssetRepository struct {
	db *DB
}

// NewAssetRepository 创建资产仓库
func NewAssetRepository(db *DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// Create 创建资产
func (r *AssetRepository) Create(ctx context.Context, a *models.Asset) error {
	if a.OdometerUnit == "" {
		a.OdometerUnit = models.OdometerUnitMile
	}
	query := `
		INSERT INTO assets (name, vin, license_plate, asset_type, odometer_unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		a.Name,
		a.VIN,
		a.LicensePlate,
		a.AssetType,
		a.OdometerUnit,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetByID 获取资产详情
func (r *AssetRepository) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	query := `
		SELECT id, name, COALESCE(vin, ''), COALESCE(license_plate, ''), COALESCE(asset_type, ''), odometer_unit, created_at, updated_at
		FROM assets WHERE id = $1
	`
	a := &models.Asset{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Name,
		&a.VIN,
		&a.LicensePlate,
		&a.AssetType,
		&a.OdometerUnit,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// List 获取资产列表
func (r *AssetRepository) List(ctx context.Context) ([]*models.Asset, error) {
	query := `
		SELECT id, name, COALESCE(vin, ''), COALESCE(license_plate, ''), COALESCE(asset_type, ''), odometer_unit, created_at, updated_at
		FROM assets ORDER BY id
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		a := &models.Asset{}
		err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.VIN,
			&a.LicensePlate,
			&a.AssetType,
			&a.OdometerUnit,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}

	return assets, nil
}
