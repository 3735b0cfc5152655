package service

import (
	"context"
	"time"

	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
)

// 存储端口
// 摄入流水线只依赖这些接口，repository 包提供 Postgres 实现；
// 测试用内存假实现即可覆盖时序与去重规则

// FuelStore 加注事件存储
type FuelStore interface {
	Create(ctx context.Context, ev *models.FuelEvent) error
	LatestFuelBefore(ctx context.Context, assetID int64, before time.Time, field engine.RefField) (*models.FuelEvent, error)
	ListByAsset(ctx context.Context, assetID int64, limit, offset int) ([]*models.FuelEvent, error)
}

// LocationStore 位置事件存储
type LocationStore interface {
	Create(ctx context.Context, ev *models.LocationEvent) error
	ListByAsset(ctx context.Context, assetID int64, limit, offset int) ([]*models.LocationEvent, error)
}

// ZoneStore 围栏存储
type ZoneStore interface {
	ListActive(ctx context.Context) ([]models.Zone, error)
}

// TransitionStore 穿越记录存储
type TransitionStore interface {
	Create(ctx context.Context, tr *models.ZoneTransition) error
}

// AnomalyStore 异常标记存储
type AnomalyStore interface {
	Create(ctx context.Context, f *models.AnomalyFlag) error
}

// ProjectionStore 投影存储
type ProjectionStore interface {
	Get(ctx context.Context, assetID int64) (*models.AssetState, error)
	ApplyIfNewer(ctx context.Context, st *models.AssetState) (bool, error)
}

// AssetStore 资产存储
type AssetStore interface {
	GetByID(ctx context.Context, id int64) (*models.Asset, error)
}
