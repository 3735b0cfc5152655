package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/langchou/fleetgazer/internal/models"
)

func TestNormalizeVolumeCanonicalIdentity(t *testing.T) {
	// 已是加仑的值原样返回
	v := decimal.NewFromFloat(12.5)
	got, err := NormalizeVolume(v, models.VolumeUnitGallon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(v) {
		t.Errorf("expected %s, got %s", v, got)
	}
}

func TestNormalizeVolumeLiters(t *testing.T) {
	v := decimal.NewFromFloat(3.78541)
	got, err := NormalizeVolume(v, models.VolumeUnitLiter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1 gallon, got %s", got)
	}
}

func TestNormalizeVolumeKwh(t *testing.T) {
	v := decimal.NewFromFloat(33.7)
	got, err := NormalizeVolume(v, models.VolumeUnitKwh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1 gallon-equivalent, got %s", got)
	}
}

func TestVolumeRoundTrip(t *testing.T) {
	// liter -> gallon -> liter 在浮点容差内还原
	orig := decimal.NewFromFloat(47.3)
	norm, err := NormalizeVolume(orig, models.VolumeUnitLiter)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	back, err := DenormalizeVolume(norm, models.VolumeUnitLiter)
	if err != nil {
		t.Fatalf("denormalize: %v", err)
	}
	tolerance := decimal.NewFromFloat(1e-9)
	if back.Sub(orig).Abs().GreaterThan(tolerance) {
		t.Errorf("round trip drifted: %s -> %s", orig, back)
	}
}

func TestNormalizeVolumeInvalidUnit(t *testing.T) {
	_, err := NormalizeVolume(decimal.NewFromInt(1), "barrel")
	if !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("expected ErrInvalidUnit, got %v", err)
	}
}

func TestNormalizeDistance(t *testing.T) {
	mi, err := NormalizeDistance(decimal.NewFromFloat(1.609344), models.OdometerUnitKilometer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mi.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1 mile, got %s", mi)
	}

	same, err := NormalizeDistance(decimal.NewFromInt(100), models.OdometerUnitMile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !same.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected identity for miles, got %s", same)
	}

	if _, err := NormalizeDistance(decimal.NewFromInt(1), "furlong"); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("expected ErrInvalidUnit, got %v", err)
	}
}
