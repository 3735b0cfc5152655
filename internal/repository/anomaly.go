package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetgazer/internal/models"
)

// AnomalyRepository 异常标记仓库
type AnomalyRepository struct {
	db *DB
}

// NewAnomalyRepository 创建异常仓库
func NewAnomalyRepository(db *DB) *AnomalyRepository {
	return &AnomalyRepository{db: db}
}

// Create 插入异常标记
func (r *AnomalyRepository) Create(ctx context.Context, f *models.AnomalyFlag) error {
	query := `
		INSERT INTO anomaly_flags (fuel_event_id, asset_id, kind, observed, threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		f.FuelEventID,
		f.AssetID,
		f.Kind,
		f.Observed,
		f.Threshold,
	).Scan(&f.ID, &f.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert anomaly flag: %w", err)
	}
	return nil
}

// ListByAsset 获取资产异常标记（按创建时间倒序分页）
func (r *AnomalyRepository) ListByAsset(ctx context.Context, assetID int64, limit, offset int) ([]*models.AnomalyFlag, error) {
	query := `
		SELECT id, fuel_event_id, asset_id, kind, observed, threshold, acknowledged, acknowledged_at, created_at
		FROM anomaly_flags
		WHERE asset_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, assetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list anomaly flags: %w", err)
	}
	defer rows.Close()

	var flags []*models.AnomalyFlag
	for rows.Next() {
		f := &models.AnomalyFlag{}
		err := rows.Scan(
			&f.ID,
			&f.FuelEventID,
			&f.AssetID,
			&f.Kind,
			&f.Observed,
			&f.Threshold,
			&f.Acknowledged,
			&f.AcknowledgedAt,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan anomaly flag: %w", err)
		}
		flags = append(flags, f)
	}

	return flags, nil
}

// Acknowledge 操作员确认异常
func (r *AnomalyRepository) Acknowledge(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE anomaly_flags SET acknowledged = TRUE, acknowledged_at = $1 WHERE id = $2 AND NOT acknowledged`
	tag, err := r.db.Pool.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("acknowledge anomaly flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
