package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/langchou/fleetgazer/internal/models"
)

// ReconcilePrice 单价与总价对账
// 只提供其一时由另一方推导（total = volume * price 或 price = total / volume），
// 两者均提供时按原样信任，不做一致性校验；均缺失返回 ErrMissingRequiredField
func ReconcilePrice(ev *models.FuelEvent) error {
	switch {
	case ev.UnitPrice == nil && ev.TotalCost == nil:
		return fmt.Errorf("%w: unit_price or total_cost", ErrMissingRequiredField)
	case ev.TotalCost == nil:
		total := ev.Volume.Mul(*ev.UnitPrice)
		ev.TotalCost = &total
	case ev.UnitPrice == nil:
		if ev.Volume.IsZero() {
			return fmt.Errorf("%w: volume required to derive unit_price", ErrMissingRequiredField)
		}
		price := ev.TotalCost.Div(ev.Volume)
		ev.UnitPrice = &price
	}
	return nil
}

// ComputeFuelDerived 从前序事件计算派生指标，结果直接写入事件的派生字段
// odoPred / hoursPred 分别为里程与工时前序，均可为 nil；
// 缺失的输入只导致对应派生字段缺失，不报错。
// 返回 distance_delta <= 0 时的回退候选由异常检测处理，此处不计算比率
func ComputeFuelDerived(ev, odoPred, hoursPred *models.FuelEvent) error {
	// 归一体积（加仑当量），仅推进类燃料参与效率计算
	var normalized *decimal.Decimal
	if models.IsPropulsionProduct(ev.ProductType) {
		n, err := NormalizeVolume(ev.Volume, ev.VolumeUnit)
		if err != nil {
			return err
		}
		normalized = &n
	}

	// 里程维度：距离差、油耗、每英里成本
	if ev.Odometer != nil && odoPred != nil && odoPred.Odometer != nil {
		delta := ev.Odometer.Sub(*odoPred.Odometer)
		ev.DistanceDelta = &delta

		if delta.IsPositive() {
			if normalized != nil && normalized.IsPositive() {
				rate := delta.Div(*normalized)
				ev.ConsumptionRate = &rate
			}
			if ev.TotalCost != nil {
				cpd := ev.TotalCost.Div(delta)
				ev.CostPerDistance = &cpd
			}
		}
	}

	// 工时维度：独立于里程维度，从各自的前序计算
	if ev.EngineHours != nil && hoursPred != nil && hoursPred.EngineHours != nil {
		hours := ev.EngineHours.Sub(*hoursPred.EngineHours)
		ev.HoursDelta = &hours

		if hours.IsPositive() && normalized != nil {
			vph := normalized.Div(hours)
			ev.VolumePerHour = &vph
		}
	}

	return nil
}
