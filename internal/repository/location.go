package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
)

// LocationRepository 位置记录仓库
type LocationRepository struct {
	db *DB
}

// NewLocationRepository 创建位置仓库
func NewLocationRepository(db *DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create 插入位置记录
// 自然键 (asset_id, occurred_at, latitude, longitude, source) 冲突返回 engine.ErrDuplicateEvent
func (r *LocationRepository) Create(ctx context.Context, ev *models.LocationEvent) error {
	query := `
		INSERT INTO location_events (asset_id, occurred_at, latitude, longitude, speed, heading, accuracy, source, zone_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		ev.AssetID,
		ev.OccurredAt,
		ev.Latitude,
		ev.Longitude,
		ev.Speed,
		ev.Heading,
		ev.Accuracy,
		ev.Source,
		ev.ZoneID,
	).Scan(&ev.ID, &ev.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("insert location event: %w", engine.ErrDuplicateEvent)
		}
		return fmt.Errorf("insert location event: %w", err)
	}
	return nil
}

// ListByAsset 获取资产位置历史（按时间倒序分页）
func (r *LocationRepository) ListByAsset(ctx context.Context, assetID int64, limit, offset int) ([]*models.LocationEvent, error) {
	query := `
		SELECT id, asset_id, occurred_at, latitude, longitude, speed, heading, accuracy, source, zone_id, created_at
		FROM location_events
		WHERE asset_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, assetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list location events: %w", err)
	}
	defer rows.Close()

	var events []*models.LocationEvent
	for rows.Next() {
		ev := &models.LocationEvent{}
		err := rows.Scan(
			&ev.ID,
			&ev.AssetID,
			&ev.OccurredAt,
			&ev.Latitude,
			&ev.Longitude,
			&ev.Speed,
			&ev.Heading,
			&ev.Accuracy,
			&ev.Source,
			&ev.ZoneID,
			&ev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan location event: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}
