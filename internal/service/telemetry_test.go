package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
	"github.com/langchou/fleetgazer/internal/state"
)

// ---- 内存假存储 ----

type fakeAssetStore struct {
	assets map[int64]*models.Asset
}

func (f *fakeAssetStore) GetByID(_ context.Context, id int64) (*models.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %d not found", id)
	}
	return a, nil
}

type fakeFuelStore struct {
	events []*models.FuelEvent
	nextID int64
}

func (f *fakeFuelStore) Create(_ context.Context, ev *models.FuelEvent) error {
	for _, e := range f.events {
		if e.AssetID == ev.AssetID && e.OccurredAt.Equal(ev.OccurredAt) &&
			e.Volume.Equal(ev.Volume) && e.TotalCost.Equal(*ev.TotalCost) {
			return fmt.Errorf("insert fuel event: %w", engine.ErrDuplicateEvent)
		}
	}
	f.nextID++
	ev.ID = f.nextID
	stored := *ev
	f.events = append(f.events, &stored)
	return nil
}

func (f *fakeFuelStore) LatestFuelBefore(_ context.Context, assetID int64, before time.Time, field engine.RefField) (*models.FuelEvent, error) {
	var best *models.FuelEvent
	for _, e := range f.events {
		if e.AssetID != assetID || !e.OccurredAt.Before(before) {
			continue
		}
		if field == engine.RefOdometer && e.Odometer == nil {
			continue
		}
		if field == engine.RefEngineHours && e.EngineHours == nil {
			continue
		}
		// 时间相同按插入序（ID）取最大
		if best == nil || e.OccurredAt.After(best.OccurredAt) ||
			(e.OccurredAt.Equal(best.OccurredAt) && e.ID > best.ID) {
			best = e
		}
	}
	return best, nil
}

func (f *fakeFuelStore) ListByAsset(_ context.Context, assetID int64, limit, offset int) ([]*models.FuelEvent, error) {
	return nil, nil
}

type fakeLocationStore struct {
	events []*models.LocationEvent
	nextID int64
}

func (f *fakeLocationStore) Create(_ context.Context, ev *models.LocationEvent) error {
	for _, e := range f.events {
		if e.AssetID == ev.AssetID && e.OccurredAt.Equal(ev.OccurredAt) &&
			e.Latitude == ev.Latitude && e.Longitude == ev.Longitude && e.Source == ev.Source {
			return fmt.Errorf("insert location event: %w", engine.ErrDuplicateEvent)
		}
	}
	f.nextID++
	ev.ID = f.nextID
	stored := *ev
	f.events = append(f.events, &stored)
	return nil
}

func (f *fakeLocationStore) ListByAsset(_ context.Context, assetID int64, limit, offset int) ([]*models.LocationEvent, error) {
	return nil, nil
}

type fakeZoneStore struct {
	zones []models.Zone
}

func (f *fakeZoneStore) ListActive(_ context.Context) ([]models.Zone, error) {
	return f.zones, nil
}

type fakeTransitionStore struct {
	items  []*models.ZoneTransition
	nextID int64
}

func (f *fakeTransitionStore) Create(_ context.Context, tr *models.ZoneTransition) error {
	f.nextID++
	tr.ID = f.nextID
	stored := *tr
	f.items = append(f.items, &stored)
	return nil
}

type fakeAnomalyStore struct {
	items  []*models.AnomalyFlag
	nextID int64
}

func (f *fakeAnomalyStore) Create(_ context.Context, flag *models.AnomalyFlag) error {
	f.nextID++
	flag.ID = f.nextID
	stored := *flag
	f.items = append(f.items, &stored)
	return nil
}

type fakeProjectionStore struct {
	states map[int64]*models.AssetState
}

func (f *fakeProjectionStore) Get(_ context.Context, assetID int64) (*models.AssetState, error) {
	st, ok := f.states[assetID]
	if !ok {
		return nil, nil
	}
	stored := *st
	return &stored, nil
}

func (f *fakeProjectionStore) ApplyIfNewer(_ context.Context, st *models.AssetState) (bool, error) {
	cur, ok := f.states[st.AssetID]
	if !ok {
		stored := *st
		f.states[st.AssetID] = &stored
		return true, nil
	}
	// 严格大于才生效，等于不更新
	if !st.LastEventAt.After(cur.LastEventAt) {
		return false, nil
	}
	cur.LastEventAt = st.LastEventAt
	if st.Latitude != nil {
		cur.Latitude = st.Latitude
		cur.Longitude = st.Longitude
		cur.ZoneID = st.ZoneID
	}
	if st.Odometer != nil {
		cur.Odometer = st.Odometer
	}
	if st.EngineHours != nil {
		cur.EngineHours = st.EngineHours
	}
	if st.ConsumptionRate != nil {
		cur.ConsumptionRate = st.ConsumptionRate
	}
	if st.CostPerDistance != nil {
		cur.CostPerDistance = st.CostPerDistance
	}
	return true, nil
}

// ---- 测试装配 ----

type harness struct {
	svc         *TelemetryService
	fuel        *fakeFuelStore
	locations   *fakeLocationStore
	zones       *fakeZoneStore
	transitions *fakeTransitionStore
	anomalies   *fakeAnomalyStore
	projections *fakeProjectionStore
}

func newHarness(zones ...models.Zone) *harness {
	h := &harness{
		fuel:        &fakeFuelStore{},
		locations:   &fakeLocationStore{},
		zones:       &fakeZoneStore{zones: zones},
		transitions: &fakeTransitionStore{},
		anomalies:   &fakeAnomalyStore{},
		projections: &fakeProjectionStore{states: make(map[int64]*models.AssetState)},
	}
	assets := &fakeAssetStore{assets: map[int64]*models.Asset{
		1: {ID: 1, Name: "truck-1", OdometerUnit: models.OdometerUnitMile},
		2: {ID: 2, Name: "truck-2", OdometerUnit: models.OdometerUnitMile},
	}}
	h.svc = NewTelemetryService(
		zap.NewNop(),
		engine.Thresholds{
			LowEfficiencyFloor: decimal.NewFromInt(4),
			HighPriceCeiling:   decimal.NewFromInt(6),
		},
		assets,
		h.fuel,
		h.locations,
		h.zones,
		h.transitions,
		h.anomalies,
		h.projections,
		state.NewManager(nil),
		nil,
		nil,
	)
	return h
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func at(minute int) time.Time {
	return time.Date(2026, 3, 1, 12, minute, 0, 0, time.UTC)
}

func fuelAt(minute int, odometer string) *models.FuelEvent {
	return &models.FuelEvent{
		AssetID:     1,
		OccurredAt:  at(minute),
		ProductType: models.FuelProductDiesel,
		Volume:      dec("10"),
		VolumeUnit:  models.VolumeUnitGallon,
		TotalCost:   decPtr("35"),
		Odometer:    decPtr(odometer),
	}
}

func pingAt(minute int, lat, lon float64) *models.LocationEvent {
	return &models.LocationEvent{
		AssetID:    1,
		OccurredAt: at(minute),
		Latitude:   lat,
		Longitude:  lon,
		Source:     models.LocationSourceGPS,
	}
}

// ---- 用例 ----

func TestIngestFuelDuplicateRejectedOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if _, err := h.svc.IngestFuel(ctx, fuelAt(0, "50000")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	_, err := h.svc.IngestFuel(ctx, fuelAt(0, "50000"))
	if !errors.Is(err, engine.ErrDuplicateEvent) {
		t.Fatalf("expected ErrDuplicateEvent, got %v", err)
	}

	// 恰好一条入库，重复提交不产生派生行
	if len(h.fuel.events) != 1 {
		t.Errorf("expected 1 stored event, got %d", len(h.fuel.events))
	}
	if len(h.anomalies.items) != 0 {
		t.Errorf("duplicate must not create anomaly rows, got %d", len(h.anomalies.items))
	}
}

func TestIngestFuelRollbackScenario(t *testing.T) {
	// 里程 50000 在库，新事件里程 49500 -> delta=-500，打回退标记，不计算油耗
	h := newHarness()
	ctx := context.Background()

	if _, err := h.svc.IngestFuel(ctx, fuelAt(0, "50000")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	flags, err := h.svc.IngestFuel(ctx, fuelAt(10, "49500"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if len(flags) != 1 || flags[0].Kind != engine.AnomalyOdometerRollback {
		t.Fatalf("expected odometer_rollback flag, got %+v", flags)
	}
	stored := h.fuel.events[1]
	if stored.DistanceDelta == nil || !stored.DistanceDelta.Equal(dec("-500")) {
		t.Errorf("expected distance_delta -500, got %v", stored.DistanceDelta)
	}
	if stored.ConsumptionRate != nil {
		t.Errorf("consumption_rate must stay unset on rollback")
	}
}

func TestIngestFuelDerivesRateFromPredecessor(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if _, err := h.svc.IngestFuel(ctx, fuelAt(0, "50000")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := h.svc.IngestFuel(ctx, fuelAt(10, "50100")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	stored := h.fuel.events[1]
	if stored.ConsumptionRate == nil || !stored.ConsumptionRate.Equal(dec("10")) {
		t.Errorf("expected consumption_rate 10, got %v", stored.ConsumptionRate)
	}

	st := h.projections.states[1]
	if st == nil || st.Odometer == nil || !st.Odometer.Equal(dec("50100")) {
		t.Errorf("projection odometer not advanced: %+v", st)
	}
}

func TestIngestFuelStaleEventLeavesProjection(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if _, err := h.svc.IngestFuel(ctx, fuelAt(30, "50100")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// 乱序旧事件：进历史，投影不动
	if _, err := h.svc.IngestFuel(ctx, fuelAt(10, "50000")); err != nil {
		t.Fatalf("stale ingest: %v", err)
	}

	st := h.projections.states[1]
	if !st.LastEventAt.Equal(at(30)) {
		t.Errorf("projection timestamp moved backwards: %v", st.LastEventAt)
	}
	if st.Odometer == nil || !st.Odometer.Equal(dec("50100")) {
		t.Errorf("projection odometer overwritten by stale event: %v", st.Odometer)
	}
	if len(h.fuel.events) != 2 {
		t.Errorf("stale event must still be stored, got %d events", len(h.fuel.events))
	}
}

func TestIngestLocationEnterThenExit(t *testing.T) {
	depot := models.Zone{ID: 1, Name: "Depot", Latitude: 31.2304, Longitude: 121.4737, RadiusM: 300}
	h := newHarness(depot)
	ctx := context.Background()

	// 进入 Depot
	trs, err := h.svc.IngestLocation(ctx, pingAt(0, 31.2304, 121.4737))
	if err != nil {
		t.Fatalf("enter ingest: %v", err)
	}
	if len(trs) != 1 || trs[0].Kind != models.TransitionEnter || trs[0].ZoneID != 1 {
		t.Fatalf("expected enter Depot, got %+v", trs)
	}

	// 驶出到围栏外：一次 exit，投影围栏清空
	trs, err = h.svc.IngestLocation(ctx, pingAt(10, 30.0, 120.0))
	if err != nil {
		t.Fatalf("exit ingest: %v", err)
	}
	if len(trs) != 1 || trs[0].Kind != models.TransitionExit || trs[0].ZoneID != 1 {
		t.Fatalf("expected exit Depot, got %+v", trs)
	}

	st := h.projections.states[1]
	if st.ZoneID != nil {
		t.Errorf("projection zone must be null after exit, got %v", *st.ZoneID)
	}
}

func TestIngestLocationZoneToZone(t *testing.T) {
	depot := models.Zone{ID: 1, Name: "Depot", Latitude: 31.2304, Longitude: 121.4737, RadiusM: 300}
	yard := models.Zone{ID: 2, Name: "Yard", Latitude: 31.3000, Longitude: 121.5000, RadiusM: 300}
	h := newHarness(depot, yard)
	ctx := context.Background()

	if _, err := h.svc.IngestLocation(ctx, pingAt(0, 31.2304, 121.4737)); err != nil {
		t.Fatalf("enter A: %v", err)
	}
	trs, err := h.svc.IngestLocation(ctx, pingAt(10, 31.3000, 121.5000))
	if err != nil {
		t.Fatalf("move to B: %v", err)
	}

	// A 直接到 B：恰好 exit(A) + enter(B)
	if len(trs) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(trs))
	}
	if trs[0].Kind != models.TransitionExit || trs[0].ZoneID != 1 {
		t.Errorf("expected exit zone 1, got %+v", trs[0])
	}
	if trs[1].Kind != models.TransitionEnter || trs[1].ZoneID != 2 {
		t.Errorf("expected enter zone 2, got %+v", trs[1])
	}
}

func TestIngestLocationSameZoneNoTransition(t *testing.T) {
	depot := models.Zone{ID: 1, Name: "Depot", Latitude: 31.2304, Longitude: 121.4737, RadiusM: 300}
	h := newHarness(depot)
	ctx := context.Background()

	if _, err := h.svc.IngestLocation(ctx, pingAt(0, 31.2304, 121.4737)); err != nil {
		t.Fatalf("first: %v", err)
	}
	trs, err := h.svc.IngestLocation(ctx, pingAt(10, 31.2305, 121.4737))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(trs) != 0 {
		t.Errorf("expected no transitions inside same zone, got %+v", trs)
	}
}

func TestIngestLocationStaleEventNoTransition(t *testing.T) {
	depot := models.Zone{ID: 1, Name: "Depot", Latitude: 31.2304, Longitude: 121.4737, RadiusM: 300}
	h := newHarness(depot)
	ctx := context.Background()

	if _, err := h.svc.IngestLocation(ctx, pingAt(30, 31.2304, 121.4737)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// 过期事件解析到围栏外，但不得产生 exit，也不得改投影
	trs, err := h.svc.IngestLocation(ctx, pingAt(10, 30.0, 120.0))
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if len(trs) != 0 {
		t.Errorf("stale event must not emit transitions, got %+v", trs)
	}
	st := h.projections.states[1]
	if st.ZoneID == nil || *st.ZoneID != 1 {
		t.Errorf("projection zone corrupted by stale event: %v", st.ZoneID)
	}
	if len(h.locations.events) != 2 {
		t.Errorf("stale event must still be stored, got %d", len(h.locations.events))
	}
}

func TestIngestLocationBatchOrderingAndPartialFailure(t *testing.T) {
	depot := models.Zone{ID: 1, Name: "Depot", Latitude: 31.2304, Longitude: 121.4737, RadiusM: 300}
	h := newHarness(depot)
	ctx := context.Background()

	events := []*models.LocationEvent{
		pingAt(20, 30.0, 120.0),        // 乱序提交：围栏外，时间最晚
		pingAt(0, 31.2304, 121.4737),   // Depot 内，时间最早
		pingAt(0, 31.2304, 121.4737),   // 与上一条重复
		{AssetID: 0, OccurredAt: at(5)}, // 非法
	}

	results, err := h.svc.IngestLocationBatch(ctx, events)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if results[0].Status != "ok" || results[1].Status != "ok" {
		t.Errorf("valid events must succeed: %+v", results[:2])
	}
	if results[2].Status != "duplicate" {
		t.Errorf("expected duplicate, got %+v", results[2])
	}
	if results[3].Status != "invalid" {
		t.Errorf("expected invalid, got %+v", results[3])
	}

	// 组内升序处理：最终投影为最晚的围栏外事件
	st := h.projections.states[1]
	if !st.LastEventAt.Equal(at(20)) {
		t.Errorf("expected projection at latest event, got %v", st.LastEventAt)
	}
	if st.ZoneID != nil {
		t.Errorf("expected no zone after batch, got %v", *st.ZoneID)
	}

	// enter(0min) + exit(20min)
	if len(h.transitions.items) != 2 {
		t.Errorf("expected 2 transitions, got %d", len(h.transitions.items))
	}
}

func TestIngestLocationBatchRejectsOversize(t *testing.T) {
	h := newHarness()
	events := make([]*models.LocationEvent, MaxBatchSize+1)
	for i := range events {
		events[i] = pingAt(i%60, 10, 10)
	}
	if _, err := h.svc.IngestLocationBatch(context.Background(), events); err == nil {
		t.Error("expected error for oversize batch")
	}
}

func TestIngestFuelMissingPrice(t *testing.T) {
	h := newHarness()
	ev := fuelAt(0, "50000")
	ev.TotalCost = nil
	_, err := h.svc.IngestFuel(context.Background(), ev)
	if !errors.Is(err, engine.ErrMissingRequiredField) {
		t.Errorf("expected ErrMissingRequiredField, got %v", err)
	}
	if len(h.fuel.events) != 0 {
		t.Errorf("invalid event must not be stored")
	}
}

func TestIngestFuelInvalidUnit(t *testing.T) {
	h := newHarness()
	ev := fuelAt(0, "50000")
	ev.VolumeUnit = "hogshead"
	_, err := h.svc.IngestFuel(context.Background(), ev)
	if !errors.Is(err, engine.ErrInvalidUnit) {
		t.Errorf("expected ErrInvalidUnit, got %v", err)
	}
}
