package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnomalyFlag 异常标记
// 入库时产生，不可变；操作员可事后确认（acknowledge）
type AnomalyFlag struct {
	ID             int64            `json:"id" db:"id"`
	FuelEventID    int64            `json:"fuel_event_id" db:"fuel_event_id"`
	AssetID        int64            `json:"asset_id" db:"asset_id"`
	Kind           string           `json:"kind" db:"kind"` // odometer_rollback / low_efficiency / high_unit_price
	Observed       decimal.Decimal  `json:"observed" db:"observed"`
	Threshold      *decimal.Decimal `json:"threshold,omitempty" db:"threshold"`
	Acknowledged   bool             `json:"acknowledged" db:"acknowledged"`
	AcknowledgedAt *time.Time       `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}
