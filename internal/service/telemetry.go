package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/cache"
	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
	"github.com/langchou/fleetgazer/internal/state"
	"github.com/langchou/fleetgazer/pkg/ws"
)

// 单次批量摄入的事件上限
const MaxBatchSize = 1000

// TelemetryService 遥测摄入服务
// 每个事件是一个原子工作单元：去重、前序解析、派生计算与投影条件更新
// 对同一资产串行，跨资产完全并行
type TelemetryService struct {
	logger     *zap.Logger
	thresholds engine.Thresholds

	assetStore      AssetStore
	fuelStore       FuelStore
	predecessors    *engine.PredecessorResolver
	locationStore   LocationStore
	zoneStore       ZoneStore
	transitionStore TransitionStore
	anomalyStore    AnomalyStore
	projectionStore ProjectionStore

	stateManager *state.Manager
	wsHub        *ws.Hub           // 可为 nil
	stateCache   *cache.StateCache // 可为 nil，尽力而为

	mu         sync.Mutex
	assetLocks map[int64]*sync.Mutex
}

// NewTelemetryService 创建遥测服务
func NewTelemetryService(
	logger *zap.Logger,
	thresholds engine.Thresholds,
	assetStore AssetStore,
	fuelStore FuelStore,
	locationStore LocationStore,
	zoneStore ZoneStore,
	transitionStore TransitionStore,
	anomalyStore AnomalyStore,
	projectionStore ProjectionStore,
	stateManager *state.Manager,
	wsHub *ws.Hub,
	stateCache *cache.StateCache,
) *TelemetryService {
	return &TelemetryService{
		logger:          logger,
		thresholds:      thresholds,
		assetStore:      assetStore,
		fuelStore:       fuelStore,
		predecessors:    engine.NewPredecessorResolver(fuelStore),
		locationStore:   locationStore,
		zoneStore:       zoneStore,
		transitionStore: transitionStore,
		anomalyStore:    anomalyStore,
		projectionStore: projectionStore,
		stateManager:    stateManager,
		wsHub:           wsHub,
		stateCache:      stateCache,
	}
}

// lockAsset 获取资产级锁
// 同一资产的摄入必须串行：两个并发事件各自解析到即将被取代的前序、
// 或乱序赢得投影更新，都会破坏正确性
func (s *TelemetryService) lockAsset(assetID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.assetLocks[assetID]
	if !ok {
		if s.assetLocks == nil {
			s.assetLocks = make(map[int64]*sync.Mutex)
		}
		lock = &sync.Mutex{}
		s.assetLocks[assetID] = lock
	}
	return lock
}

// CurrentState 读取资产当前投影
func (s *TelemetryService) CurrentState(ctx context.Context, assetID int64) (*models.AssetState, error) {
	return s.projectionStore.Get(ctx, assetID)
}

// mirrorState 尽力写 Redis 镜像，失败只记日志
func (s *TelemetryService) mirrorState(ctx context.Context, st *models.AssetState) {
	if s.stateCache == nil || st == nil {
		return
	}
	if err := s.stateCache.MirrorState(ctx, st); err != nil {
		s.logger.Warn("Failed to mirror state to redis", zap.Error(err), zap.Int64("asset_id", st.AssetID))
	}
}
