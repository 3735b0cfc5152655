package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetgazer/internal/models"
)

// TransitionRepository 围栏穿越记录仓库
type TransitionRepository struct {
	db *DB
}

// NewTransitionRepository 创建穿越仓库
func NewTransitionRepository(db *DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

// Create 插入穿越记录
func (r *TransitionRepository) Create(ctx context.Context, tr *models.ZoneTransition) error {
	query := `
		INSERT INTO zone_transitions (asset_id, zone_id, location_event_id, kind, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		tr.AssetID,
		tr.ZoneID,
		tr.LocationEventID,
		tr.Kind,
		tr.OccurredAt,
	).Scan(&tr.ID, &tr.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert zone transition: %w", err)
	}
	return nil
}

// ListByAsset 获取资产穿越历史（按时间倒序分页）
func (r *TransitionRepository) ListByAsset(ctx context.Context, assetID int64, limit, offset int) ([]*models.ZoneTransition, error) {
	query := `
		SELECT id, asset_id, zone_id, location_event_id, kind, occurred_at, created_at
		FROM zone_transitions
		WHERE asset_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, assetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list zone transitions: %w", err)
	}
	defer rows.Close()

	var transitions []*models.ZoneTransition
	for rows.Next() {
		tr := &models.ZoneTransition{}
		err := rows.Scan(
			&tr.ID,
			&tr.AssetID,
			&tr.ZoneID,
			&tr.LocationEventID,
			&tr.Kind,
			&tr.OccurredAt,
			&tr.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan zone transition: %w", err)
		}
		transitions = append(transitions, tr)
	}

	return transitions, nil
}
