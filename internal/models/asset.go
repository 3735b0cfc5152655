package models

import "time"

// 里程表单位常量
const (
	OdometerUnitMile      = "mi"
	OdometerUnitKilometer = "km"
)

// Asset 车队资产（车辆/设备）
type Asset struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	VIN          string    `json:"vin,omitempty" db:"vin"`
	LicensePlate string    `json:"license_plate,omitempty" db:"license_plate"`
	AssetType    string    `json:"asset_type,omitempty" db:"asset_type"`
	OdometerUnit string    `json:"odometer_unit" db:"odometer_unit"` // mi / km，录入里程时据此归一
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
