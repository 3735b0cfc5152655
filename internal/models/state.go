package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetState "最新已知状态" 投影，每资产一行
// 仅当新事件的 occurred_at 严格大于 last_event_at 时才允许更新，
// 乱序到达的旧事件进历史但不得覆盖本投影
type AssetState struct {
	AssetID     int64     `json:"asset_id" db:"asset_id"`
	LastEventAt time.Time `json:"last_event_at" db:"last_event_at"`

	// 位置快照
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
	ZoneID    *int64   `json:"zone_id,omitempty" db:"zone_id"`

	// 燃油快照
	Odometer        *decimal.Decimal `json:"odometer,omitempty" db:"odometer"`
	EngineHours     *decimal.Decimal `json:"engine_hours,omitempty" db:"engine_hours"`
	ConsumptionRate *decimal.Decimal `json:"consumption_rate,omitempty" db:"consumption_rate"`
	CostPerDistance *decimal.Decimal `json:"cost_per_distance,omitempty" db:"cost_per_distance"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
