package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
	"github.com/langchou/fleetgazer/internal/state"
)

// IngestFuel 摄入一条加注事件
// 流水线：校验 → 对账 → 前序解析 → 派生计算 → 异常检测 → 持久化 → 投影条件更新。
// 重复提交返回 engine.ErrDuplicateEvent 且不产生任何派生行
func (s *TelemetryService) IngestFuel(ctx context.Context, ev *models.FuelEvent) ([]*models.AnomalyFlag, error) {
	if err := s.validateFuel(ev); err != nil {
		return nil, err
	}

	lock := s.lockAsset(ev.AssetID)
	lock.Lock()
	defer lock.Unlock()

	asset, err := s.assetStore.GetByID(ctx, ev.AssetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}

	// 里程读数按资产偏好单位归一为英里
	if ev.Odometer != nil && asset.OdometerUnit != models.OdometerUnitMile {
		normalized, err := engine.NormalizeDistance(*ev.Odometer, asset.OdometerUnit)
		if err != nil {
			return nil, err
		}
		ev.Odometer = &normalized
	}

	if err := engine.ReconcilePrice(ev); err != nil {
		return nil, err
	}

	// 里程前序与工时前序独立解析
	odoPred, err := s.predecessors.Resolve(ctx, ev.AssetID, ev.OccurredAt, engine.RefOdometer)
	if err != nil {
		return nil, err
	}
	hoursPred, err := s.predecessors.Resolve(ctx, ev.AssetID, ev.OccurredAt, engine.RefEngineHours)
	if err != nil {
		return nil, err
	}

	if err := engine.ComputeFuelDerived(ev, odoPred, hoursPred); err != nil {
		return nil, err
	}

	tags := engine.DetectFuelAnomalies(ev, s.thresholds)

	// 去重由自然键唯一索引在插入时保证；冲突时后续副作用全部跳过
	if err := s.fuelStore.Create(ctx, ev); err != nil {
		return nil, err
	}

	flags := make([]*models.AnomalyFlag, 0, len(tags))
	for _, tag := range tags {
		flag := &models.AnomalyFlag{
			FuelEventID: ev.ID,
			AssetID:     ev.AssetID,
			Kind:        tag.Kind,
			Observed:    tag.Observed,
			Threshold:   tag.Threshold,
		}
		if err := s.anomalyStore.Create(ctx, flag); err != nil {
			return nil, fmt.Errorf("persist anomaly flag: %w", err)
		}
		flags = append(flags, flag)
		s.logger.Warn("Anomaly detected",
			zap.Int64("asset_id", ev.AssetID),
			zap.Int64("fuel_event_id", ev.ID),
			zap.String("kind", tag.Kind))
	}

	applied, err := s.projectionStore.ApplyIfNewer(ctx, &models.AssetState{
		AssetID:         ev.AssetID,
		LastEventAt:     ev.OccurredAt,
		Odometer:        ev.Odometer,
		EngineHours:     ev.EngineHours,
		ConsumptionRate: ev.ConsumptionRate,
		CostPerDistance: ev.CostPerDistance,
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.publishFuelState(ctx, ev)
	}

	for _, flag := range flags {
		if s.wsHub != nil {
			s.wsHub.BroadcastAnomaly(flag)
		}
	}

	s.logger.Debug("Fuel event ingested",
		zap.Int64("asset_id", ev.AssetID),
		zap.Int64("event_id", ev.ID),
		zap.Bool("projection_applied", applied))

	return flags, nil
}

// validateFuel 单事件级校验
func (s *TelemetryService) validateFuel(ev *models.FuelEvent) error {
	if ev.AssetID <= 0 {
		return fmt.Errorf("%w: asset_id", engine.ErrMissingRequiredField)
	}
	if ev.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at", engine.ErrMissingRequiredField)
	}
	if !ev.Volume.IsPositive() {
		return fmt.Errorf("%w: volume must be positive", engine.ErrMissingRequiredField)
	}
	// 单位标签提前校验，避免半途失败
	if _, err := engine.NormalizeVolume(ev.Volume, ev.VolumeUnit); err != nil {
		return err
	}
	return nil
}

// publishFuelState 投影更新后刷新实时状态并广播
func (s *TelemetryService) publishFuelState(ctx context.Context, ev *models.FuelEvent) {
	machine := s.stateManager.GetOrCreate(ev.AssetID, nil)
	machine.UpdateState(func(ls *state.AssetLiveState) {
		ls.Odometer = ev.Odometer
		if ev.ConsumptionRate != nil {
			ls.ConsumptionRate = ev.ConsumptionRate
		}
		ls.LastEventAt = ev.OccurredAt
	})

	if s.wsHub != nil {
		s.wsHub.BroadcastStateUpdate(machine.GetState())
	}

	st, err := s.projectionStore.Get(ctx, ev.AssetID)
	if err != nil {
		s.logger.Warn("Failed to reload projection", zap.Error(err), zap.Int64("asset_id", ev.AssetID))
		return
	}
	s.mirrorState(ctx, st)
}
