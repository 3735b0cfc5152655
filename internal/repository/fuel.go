package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
)

// Postgres 唯一约束冲突
const pgUniqueViolation = "23505"

// FuelRepository 加注记录仓库
type FuelRepository struct {
	db *DB
}

// NewFuelRepository 创建加注仓库
func NewFuelRepository(db *DB) *FuelRepository {
	return &FuelRepository{db: db}
}

const fuelColumns = `id, asset_id, occurred_at, product_type, volume, volume_unit,
	unit_price, total_cost, odometer, engine_hours, COALESCE(vendor, ''), COALESCE(card_number, ''),
	distance_delta, consumption_rate, cost_per_distance, hours_delta, volume_per_hour, created_at`

// Create 插入加注记录
// 自然键 (asset_id, occurred_at, volume, total_cost) 冲突返回 engine.ErrDuplicateEvent，
// 去重由唯一索引在插入时原子保证
func (r *FuelRepository) Create(ctx context.Context, ev *models.FuelEvent) error {
	query := `
		INSERT INTO fuel_events (asset_id, occurred_at, product_type, volume, volume_unit,
			unit_price, total_cost, odometer, engine_hours, vendor, card_number,
			distance_delta, consumption_rate, cost_per_distance, hours_delta, volume_per_hour)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		ev.AssetID,
		ev.OccurredAt,
		ev.ProductType,
		ev.Volume,
		ev.VolumeUnit,
		ev.UnitPrice,
		ev.TotalCost,
		ev.Odometer,
		ev.EngineHours,
		ev.Vendor,
		ev.CardNumber,
		ev.DistanceDelta,
		ev.ConsumptionRate,
		ev.CostPerDistance,
		ev.HoursDelta,
		ev.VolumePerHour,
	).Scan(&ev.ID, &ev.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("insert fuel event: %w", engine.ErrDuplicateEvent)
		}
		return fmt.Errorf("insert fuel event: %w", err)
	}
	return nil
}

// LatestFuelBefore 查询前序加注事件
// occurred_at 严格早于 before 且指定参考字段非空；同时刻按插入序取最大 ID。
// 未找到返回 (nil, nil)
func (r *FuelRepository) LatestFuelBefore(ctx context.Context, assetID int64, before time.Time, field engine.RefField) (*models.FuelEvent, error) {
	var refFilter string
	switch field {
	case engine.RefOdometer:
		refFilter = "odometer IS NOT NULL"
	case engine.RefEngineHours:
		refFilter = "engine_hours IS NOT NULL"
	default:
		return nil, fmt.Errorf("unknown reference field %q", field)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM fuel_events
		WHERE asset_id = $1 AND occurred_at < $2 AND %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT 1
	`, fuelColumns, refFilter)

	ev := &models.FuelEvent{}
	err := r.db.Pool.QueryRow(ctx, query, assetID, before).Scan(fuelScanDest(ev)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest fuel before: %w", err)
	}
	return ev, nil
}

// ListByAsset 获取资产加注历史（按时间倒序分页）
func (r *FuelRepository) ListByAsset(ctx context.Context, assetID int64, limit, offset int) ([]*models.FuelEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM fuel_events
		WHERE asset_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, fuelColumns)

	rows, err := r.db.Pool.Query(ctx, query, assetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list fuel events: %w", err)
	}
	defer rows.Close()

	var events []*models.FuelEvent
	for rows.Next() {
		ev := &models.FuelEvent{}
		if err := rows.Scan(fuelScanDest(ev)...); err != nil {
			return nil, fmt.Errorf("scan fuel event: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// Delete 操作员显式删除加注记录
// 后续事件的派生字段不做级联重算
func (r *FuelRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM fuel_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fuel event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func fuelScanDest(ev *models.FuelEvent) []interface{} {
	return []interface{}{
		&ev.ID,
		&ev.AssetID,
		&ev.OccurredAt,
		&ev.ProductType,
		&ev.Volume,
		&ev.VolumeUnit,
		&ev.UnitPrice,
		&ev.TotalCost,
		&ev.Odometer,
		&ev.EngineHours,
		&ev.Vendor,
		&ev.CardNumber,
		&ev.DistanceDelta,
		&ev.ConsumptionRate,
		&ev.CostPerDistance,
		&ev.HoursDelta,
		&ev.VolumePerHour,
		&ev.CreatedAt,
	}
}
