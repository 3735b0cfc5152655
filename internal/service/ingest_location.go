package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
	"github.com/langchou/fleetgazer/internal/state"
)

// IngestLocation 摄入一条位置事件
// 围栏解析后入库；仅当事件比投影新时才做穿越检测与投影更新，
// 过期/乱序事件进历史但不得触碰实时围栏状态
func (s *TelemetryService) IngestLocation(ctx context.Context, ev *models.LocationEvent) ([]*models.ZoneTransition, error) {
	if err := s.validateLocation(ev); err != nil {
		return nil, err
	}

	lock := s.lockAsset(ev.AssetID)
	lock.Lock()
	defer lock.Unlock()

	return s.ingestLocationLocked(ctx, ev)
}

// ingestLocationLocked 持有资产锁后的摄入主体
func (s *TelemetryService) ingestLocationLocked(ctx context.Context, ev *models.LocationEvent) ([]*models.ZoneTransition, error) {
	// 围栏按需读取，不做长期缓存
	zones, err := s.zoneStore.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}

	if zone := engine.ResolveZone(ev.Latitude, ev.Longitude, zones); zone != nil {
		ev.ZoneID = &zone.ID
	}

	// 先读投影：穿越检测需要更新前记忆的围栏
	prev, err := s.projectionStore.Get(ctx, ev.AssetID)
	if err != nil {
		return nil, err
	}

	if err := s.locationStore.Create(ctx, ev); err != nil {
		return nil, err
	}

	// 过期事件：只进历史
	if prev != nil && !ev.OccurredAt.After(prev.LastEventAt) {
		s.logger.Debug("Stale location event stored without projection update",
			zap.Int64("asset_id", ev.AssetID),
			zap.Int64("event_id", ev.ID))
		return nil, nil
	}

	var prevZone *int64
	if prev != nil {
		prevZone = prev.ZoneID
	}

	var transitions []*models.ZoneTransition
	for _, change := range engine.DetectZoneTransitions(prevZone, ev.ZoneID) {
		tr := &models.ZoneTransition{
			AssetID:         ev.AssetID,
			ZoneID:          change.ZoneID,
			LocationEventID: ev.ID,
			Kind:            change.Kind,
			OccurredAt:      ev.OccurredAt,
		}
		if err := s.transitionStore.Create(ctx, tr); err != nil {
			return nil, fmt.Errorf("persist zone transition: %w", err)
		}
		transitions = append(transitions, tr)
	}

	applied, err := s.projectionStore.ApplyIfNewer(ctx, &models.AssetState{
		AssetID:     ev.AssetID,
		LastEventAt: ev.OccurredAt,
		Latitude:    &ev.Latitude,
		Longitude:   &ev.Longitude,
		ZoneID:      ev.ZoneID,
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.publishLocationState(ctx, ev, prevZone, transitions)
	}

	return transitions, nil
}

// validateLocation 单事件级校验
func (s *TelemetryService) validateLocation(ev *models.LocationEvent) error {
	if ev.AssetID <= 0 {
		return fmt.Errorf("%w: asset_id", engine.ErrMissingRequiredField)
	}
	if ev.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at", engine.ErrMissingRequiredField)
	}
	if ev.Latitude < -90 || ev.Latitude > 90 || ev.Longitude < -180 || ev.Longitude > 180 {
		return fmt.Errorf("%w: coordinate out of range", engine.ErrMissingRequiredField)
	}
	if ev.Source == "" {
		ev.Source = models.LocationSourceGPS
	}
	return nil
}

// publishLocationState 投影更新后刷新实时状态并广播
func (s *TelemetryService) publishLocationState(ctx context.Context, ev *models.LocationEvent, prevZone *int64, transitions []*models.ZoneTransition) {
	machine := s.stateManager.GetOrCreate(ev.AssetID, prevZone)
	if err := machine.SetZone(ev.ZoneID); err != nil {
		s.logger.Warn("Failed to advance zone state machine", zap.Error(err), zap.Int64("asset_id", ev.AssetID))
	}
	machine.UpdateState(func(ls *state.AssetLiveState) {
		ls.Latitude = &ev.Latitude
		ls.Longitude = &ev.Longitude
		ls.LastEventAt = ev.OccurredAt
	})

	if s.wsHub != nil {
		s.wsHub.BroadcastStateUpdate(machine.GetState())
		for _, tr := range transitions {
			s.wsHub.BroadcastZoneTransition(tr)
		}
	}

	for _, tr := range transitions {
		if s.stateCache != nil {
			if err := s.stateCache.PublishTransition(ctx, tr); err != nil {
				s.logger.Warn("Failed to publish transition", zap.Error(err), zap.Int64("asset_id", ev.AssetID))
			}
		}
	}

	st, err := s.projectionStore.Get(ctx, ev.AssetID)
	if err != nil {
		s.logger.Warn("Failed to reload projection", zap.Error(err), zap.Int64("asset_id", ev.AssetID))
		return
	}
	s.mirrorState(ctx, st)
}

// BatchResult 批量摄入的单事件结果
type BatchResult struct {
	Index   int    `json:"index"`
	EventID int64  `json:"event_id,omitempty"`
	AssetID int64  `json:"asset_id"`
	Status  string `json:"status"` // ok / duplicate / invalid
	Error   string `json:"error,omitempty"`
}

// IngestLocationBatch 批量摄入位置事件（上限 MaxBatchSize）
// 按资产分组、组内按时间升序处理：前序必须先于后继存在。
// 单事件失败不影响批内其他事件，调用方收到逐事件报告，不做自动重试
func (s *TelemetryService) IngestLocationBatch(ctx context.Context, events []*models.LocationEvent) ([]BatchResult, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if len(events) > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds limit %d", len(events), MaxBatchSize)
	}

	type indexed struct {
		idx int
		ev  *models.LocationEvent
	}

	byAsset := make(map[int64][]indexed)
	results := make([]BatchResult, len(events))

	for i, ev := range events {
		if err := s.validateLocation(ev); err != nil {
			results[i] = BatchResult{Index: i, AssetID: ev.AssetID, Status: "invalid", Error: err.Error()}
			continue
		}
		byAsset[ev.AssetID] = append(byAsset[ev.AssetID], indexed{idx: i, ev: ev})
	}

	for assetID, group := range byAsset {
		// 组内升序，时间相同保持提交顺序
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ev.OccurredAt.Before(group[j].ev.OccurredAt)
		})

		lock := s.lockAsset(assetID)
		lock.Lock()
		for _, item := range group {
			_, err := s.ingestLocationLocked(ctx, item.ev)
			switch {
			case err == nil:
				results[item.idx] = BatchResult{Index: item.idx, EventID: item.ev.ID, AssetID: assetID, Status: "ok"}
			case errors.Is(err, engine.ErrDuplicateEvent):
				results[item.idx] = BatchResult{Index: item.idx, AssetID: assetID, Status: "duplicate", Error: err.Error()}
			default:
				results[item.idx] = BatchResult{Index: item.idx, AssetID: assetID, Status: "invalid", Error: err.Error()}
			}
		}
		lock.Unlock()
	}

	return results, nil
}
