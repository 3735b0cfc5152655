package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 燃料类型常量
const (
	FuelProductGasoline = "gasoline"
	FuelProductDiesel   = "diesel"
	FuelProductElectric = "electric"
	FuelProductDEF      = "def" // 尾气处理液，不参与效率计算
)

// 体积单位常量
const (
	VolumeUnitGallon = "gallon"
	VolumeUnitLiter  = "liter"
	VolumeUnitKwh    = "kwh"
)

// IsPropulsionProduct 判断燃料类型是否参与效率计算
func IsPropulsionProduct(product string) bool {
	return product != FuelProductDEF
}

// FuelEvent 加注记录
// 自然键为 (asset_id, occurred_at, volume, total_cost)，入库后不可变，
// 仅允许附加异常标记或由操作员显式删除
type FuelEvent struct {
	ID          int64           `json:"id" db:"id"`
	AssetID     int64           `json:"asset_id" db:"asset_id"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
	ProductType string          `json:"product_type" db:"product_type"`
	Volume      decimal.Decimal `json:"volume" db:"volume"`
	VolumeUnit  string          `json:"volume_unit" db:"volume_unit"`

	// 单价与总价至少提供其一，缺失的一方由另一方推导
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" db:"unit_price"`
	TotalCost *decimal.Decimal `json:"total_cost,omitempty" db:"total_cost"`

	// 参考读数（可选，允许只有其一或均缺失）
	Odometer    *decimal.Decimal `json:"odometer,omitempty" db:"odometer"`         // 英里
	EngineHours *decimal.Decimal `json:"engine_hours,omitempty" db:"engine_hours"` // 小时

	// 加注站信息（不参与计算）
	Vendor     string `json:"vendor,omitempty" db:"vendor"`
	CardNumber string `json:"card_number,omitempty" db:"card_number"`

	// 派生字段（入库时一次性计算，不回填）
	DistanceDelta   *decimal.Decimal `json:"distance_delta,omitempty" db:"distance_delta"`       // 英里
	ConsumptionRate *decimal.Decimal `json:"consumption_rate,omitempty" db:"consumption_rate"`   // 英里/加仑当量
	CostPerDistance *decimal.Decimal `json:"cost_per_distance,omitempty" db:"cost_per_distance"` // 元/英里
	HoursDelta      *decimal.Decimal `json:"hours_delta,omitempty" db:"hours_delta"`             // 小时
	VolumePerHour   *decimal.Decimal `json:"volume_per_hour,omitempty" db:"volume_per_hour"`     // 加仑当量/小时

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
