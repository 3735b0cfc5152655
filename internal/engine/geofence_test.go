package engine

import (
	"testing"

	"github.com/langchou/fleetgazer/internal/models"
)

var testZones = []models.Zone{
	{ID: 3, Name: "Yard", Latitude: 31.2304, Longitude: 121.4737, RadiusM: 500},
	{ID: 1, Name: "Depot", Latitude: 31.2304, Longitude: 121.4737, RadiusM: 300},
	{ID: 2, Name: "Service", Latitude: 31.3000, Longitude: 121.5000, RadiusM: 200},
}

func TestResolveZoneCenterAlwaysContained(t *testing.T) {
	// 围栏中心点必然被包含（radius > 0）
	z := ResolveZone(31.2304, 121.4737, testZones)
	if z == nil {
		t.Fatal("expected a zone at center, got none")
	}
}

func TestResolveZoneFirstMatchByAscendingID(t *testing.T) {
	// Depot(1) 与 Yard(3) 重叠，按 ID 升序先匹配 Depot
	z := ResolveZone(31.2304, 121.4737, testZones)
	if z == nil || z.ID != 1 {
		t.Errorf("expected zone 1 (Depot), got %v", z)
	}
}

func TestResolveZoneBeyondRadius(t *testing.T) {
	// 距所有围栏中心都超过半径的点不被包含
	z := ResolveZone(30.0, 120.0, testZones)
	if z != nil {
		t.Errorf("expected no zone, got %d", z.ID)
	}
}

func TestResolveZoneJustOutside(t *testing.T) {
	// Service 半径 200m，北移约 2.2km 的点在围栏外
	z := ResolveZone(31.3200, 121.5000, testZones)
	if z != nil {
		t.Errorf("expected no zone, got %d", z.ID)
	}
}

func TestResolveZoneSkipsNonPositiveRadius(t *testing.T) {
	zones := []models.Zone{{ID: 1, Latitude: 10, Longitude: 10, RadiusM: 0}}
	if z := ResolveZone(10, 10, zones); z != nil {
		t.Errorf("zero-radius zone must never contain, got %d", z.ID)
	}
}

func TestHaversineMetersKnownDistance(t *testing.T) {
	// 赤道上经度差 1 度约 111.19km
	d := HaversineMeters(0, 0, 0, 1)
	if d < 111100 || d > 111300 {
		t.Errorf("expected ~111195m, got %.0f", d)
	}
	if HaversineMeters(10, 20, 10, 20) != 0 {
		t.Error("distance to self must be zero")
	}
}
