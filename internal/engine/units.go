package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/langchou/fleetgazer/internal/models"
)

// 单位换算常量
// 体积统一归一为加仑当量，距离统一归一为英里
var (
	litersPerGallon   = decimal.NewFromFloat(3.78541)
	kwhPerGallonEq    = decimal.NewFromFloat(33.7)
	kilometersPerMile = decimal.NewFromFloat(1.609344)
)

// NormalizeVolume 将体积换算为加仑当量
func NormalizeVolume(v decimal.Decimal, unit string) (decimal.Decimal, error) {
	switch unit {
	case models.VolumeUnitGallon:
		return v, nil
	case models.VolumeUnitLiter:
		return v.Div(litersPerGallon), nil
	case models.VolumeUnitKwh:
		return v.Div(kwhPerGallonEq), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: volume unit %q", ErrInvalidUnit, unit)
	}
}

// DenormalizeVolume 将加仑当量换算回指定单位
func DenormalizeVolume(v decimal.Decimal, unit string) (decimal.Decimal, error) {
	switch unit {
	case models.VolumeUnitGallon:
		return v, nil
	case models.VolumeUnitLiter:
		return v.Mul(litersPerGallon), nil
	case models.VolumeUnitKwh:
		return v.Mul(kwhPerGallonEq), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: volume unit %q", ErrInvalidUnit, unit)
	}
}

// NormalizeDistance 将距离换算为英里
func NormalizeDistance(d decimal.Decimal, unit string) (decimal.Decimal, error) {
	switch unit {
	case models.OdometerUnitMile:
		return d, nil
	case models.OdometerUnitKilometer:
		return d.Div(kilometersPerMile), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: distance unit %q", ErrInvalidUnit, unit)
	}
}
