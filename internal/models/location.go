package models

import "time"

// 定位来源常量
const (
	LocationSourceGPS    = "gps"
	LocationSourceOBD    = "obd"
	LocationSourceManual = "manual"
)

// LocationEvent 位置记录
// 自然键为 (asset_id, occurred_at, latitude, longitude, source)
type LocationEvent struct {
	ID         int64     `json:"id" db:"id"`
	AssetID    int64     `json:"asset_id" db:"asset_id"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	Speed      *float64  `json:"speed,omitempty" db:"speed"`       // km/h
	Heading    *float64  `json:"heading,omitempty" db:"heading"`   // 度
	Accuracy   *float64  `json:"accuracy,omitempty" db:"accuracy"` // 米
	Source     string    `json:"source" db:"source"`

	// 派生字段：入库时解析到的围栏（可为空）
	ZoneID *int64 `json:"zone_id,omitempty" db:"zone_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
