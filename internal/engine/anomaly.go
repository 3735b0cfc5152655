package engine

import (
	"github.com/shopspring/decimal"

	"github.com/langchou/fleetgazer/internal/models"
)

// 异常类别常量
const (
	AnomalyOdometerRollback = "odometer_rollback"
	AnomalyLowEfficiency    = "low_efficiency"
	AnomalyHighUnitPrice    = "high_unit_price"
)

// Thresholds 异常检测阈值（来自配置）
type Thresholds struct {
	LowEfficiencyFloor decimal.Decimal // 油耗下限（英里/加仑当量）
	HighPriceCeiling   decimal.Decimal // 单价上限
}

// AnomalyTag 检测结果标签，一条事件可携带多个
type AnomalyTag struct {
	Kind      string
	Observed  decimal.Decimal
	Threshold *decimal.Decimal
}

// DetectFuelAnomalies 对已完成派生计算的加注事件做阈值检测
// 纯函数，不产生副作用；AnomalyFlag 的持久化由调用方负责
func DetectFuelAnomalies(ev *models.FuelEvent, th Thresholds) []AnomalyTag {
	var tags []AnomalyTag

	// 里程回退：距离差为负
	if ev.DistanceDelta != nil && ev.DistanceDelta.IsNegative() {
		tags = append(tags, AnomalyTag{
			Kind:     AnomalyOdometerRollback,
			Observed: *ev.DistanceDelta,
		})
	}

	// 油耗低于下限
	if ev.ConsumptionRate != nil && th.LowEfficiencyFloor.IsPositive() &&
		ev.ConsumptionRate.LessThan(th.LowEfficiencyFloor) {
		floor := th.LowEfficiencyFloor
		tags = append(tags, AnomalyTag{
			Kind:      AnomalyLowEfficiency,
			Observed:  *ev.ConsumptionRate,
			Threshold: &floor,
		})
	}

	// 单价高于上限
	if ev.UnitPrice != nil && th.HighPriceCeiling.IsPositive() &&
		ev.UnitPrice.GreaterThan(th.HighPriceCeiling) {
		ceiling := th.HighPriceCeiling
		tags = append(tags, AnomalyTag{
			Kind:      AnomalyHighUnitPrice,
			Observed:  *ev.UnitPrice,
			Threshold: &ceiling,
		})
	}

	return tags
}
