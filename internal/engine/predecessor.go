package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/fleetgazer/internal/models"
)

// RefField 前序事件必须携带的参考读数
type RefField string

const (
	RefOdometer    RefField = "odometer"
	RefEngineHours RefField = "engine_hours"
)

// FuelPredecessorStore 前序加注事件查询端口
// 实现方必须返回 occurred_at 严格早于 before、且指定参考字段非空的最新一条记录；
// occurred_at 相同时按插入序（自增 ID）降序取最大者，未找到返回 (nil, nil)
type FuelPredecessorStore interface {
	LatestFuelBefore(ctx context.Context, assetID int64, before time.Time, field RefField) (*models.FuelEvent, error)
}

// PredecessorResolver 前序事件解析器
// 同一加注事件的里程前序与工时前序相互独立：一条记录可能只有其一、两者皆有或都没有
type PredecessorResolver struct {
	store FuelPredecessorStore
}

// NewPredecessorResolver 创建解析器
func NewPredecessorResolver(store FuelPredecessorStore) *PredecessorResolver {
	return &PredecessorResolver{store: store}
}

// Resolve 解析携带指定参考读数的前序事件，未找到返回 (nil, nil)
func (r *PredecessorResolver) Resolve(ctx context.Context, assetID int64, before time.Time, field RefField) (*models.FuelEvent, error) {
	prev, err := r.store.LatestFuelBefore(ctx, assetID, before, field)
	if err != nil {
		return nil, fmt.Errorf("resolve predecessor: %w", err)
	}
	return prev, nil
}
