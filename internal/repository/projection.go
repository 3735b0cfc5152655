package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetgazer/internal/models"
)

// ProjectionRepository "最新已知状态" 投影仓库
// 投影只能经由 ApplyIfNewer 写入，任何直写都会破坏时序保证
type ProjectionRepository struct {
	db *DB
}

// NewProjectionRepository 创建投影仓库
func NewProjectionRepository(db *DB) *ProjectionRepository {
	return &ProjectionRepository{db: db}
}

// Get 读取资产当前投影，不存在返回 (nil, nil)
func (r *ProjectionRepository) Get(ctx context.Context, assetID int64) (*models.AssetState, error) {
	query := `
		SELECT asset_id, last_event_at, latitude, longitude, zone_id,
			odometer, engine_hours, consumption_rate, cost_per_distance, updated_at
		FROM asset_states WHERE asset_id = $1
	`
	st := &models.AssetState{}
	err := r.db.Pool.QueryRow(ctx, query, assetID).Scan(
		&st.AssetID,
		&st.LastEventAt,
		&st.Latitude,
		&st.Longitude,
		&st.ZoneID,
		&st.Odometer,
		&st.EngineHours,
		&st.ConsumptionRate,
		&st.CostPerDistance,
		&st.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset state: %w", err)
	}
	return st, nil
}

// ApplyIfNewer 条件写入投影
// 仅当 last_event_at 严格小于新事件时间时生效（时间相等不更新）；
// 各快照字段按 COALESCE 合并，单一事件类型只覆盖自己相关的字段。
// 返回是否实际应用
func (r *ProjectionRepository) ApplyIfNewer(ctx context.Context, st *models.AssetState) (bool, error) {
	query := `
		INSERT INTO asset_states (asset_id, last_event_at, latitude, longitude, zone_id,
			odometer, engine_hours, consumption_rate, cost_per_distance, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (asset_id) DO UPDATE SET
			last_event_at = EXCLUDED.last_event_at,
			latitude = COALESCE(EXCLUDED.latitude, asset_states.latitude),
			longitude = COALESCE(EXCLUDED.longitude, asset_states.longitude),
			zone_id = CASE WHEN EXCLUDED.latitude IS NOT NULL THEN EXCLUDED.zone_id ELSE asset_states.zone_id END,
			odometer = COALESCE(EXCLUDED.odometer, asset_states.odometer),
			engine_hours = COALESCE(EXCLUDED.engine_hours, asset_states.engine_hours),
			consumption_rate = COALESCE(EXCLUDED.consumption_rate, asset_states.consumption_rate),
			cost_per_distance = COALESCE(EXCLUDED.cost_per_distance, asset_states.cost_per_distance),
			updated_at = NOW()
		WHERE asset_states.last_event_at < EXCLUDED.last_event_at
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		st.AssetID,
		st.LastEventAt,
		st.Latitude,
		st.Longitude,
		st.ZoneID,
		st.Odometer,
		st.EngineHours,
		st.ConsumptionRate,
		st.CostPerDistance,
	)
	if err != nil {
		return false, fmt.Errorf("apply asset state: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List 读取全部投影（实时看板初始化用）
func (r *ProjectionRepository) List(ctx context.Context) ([]*models.AssetState, error) {
	query := `
		SELECT asset_id, last_event_at, latitude, longitude, zone_id,
			odometer, engine_hours, consumption_rate, cost_per_distance, updated_at
		FROM asset_states ORDER BY asset_id
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list asset states: %w", err)
	}
	defer rows.Close()

	var states []*models.AssetState
	for rows.Next() {
		st := &models.AssetState{}
		err := rows.Scan(
			&st.AssetID,
			&st.LastEventAt,
			&st.Latitude,
			&st.Longitude,
			&st.ZoneID,
			&st.Odometer,
			&st.EngineHours,
			&st.ConsumptionRate,
			&st.CostPerDistance,
			&st.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan asset state: %w", err)
		}
		states = append(states, st)
	}

	return states, nil
}
