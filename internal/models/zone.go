package models

import "time"

// Zone 圆形地理围栏
// 包含判定为中心点大圆距离 <= radius，多个围栏重叠时按 ID 升序取第一个命中
type Zone struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Category  string  `json:"category,omitempty" db:"category"` // depot / customer / service ...
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	RadiusM   float64 `json:"radius_m" db:"radius_m"` // 米，必须 > 0
}

// 围栏穿越方向常量
const (
	TransitionEnter = "enter"
	TransitionExit  = "exit"
)

// ZoneTransition 围栏穿越记录
// 仅当投影记忆的围栏与新解析结果不同时产生
type ZoneTransition struct {
	ID              int64     `json:"id" db:"id"`
	AssetID         int64     `json:"asset_id" db:"asset_id"`
	ZoneID          int64     `json:"zone_id" db:"zone_id"`
	LocationEventID int64     `json:"location_event_id" db:"location_event_id"`
	Kind            string    `json:"kind" db:"kind"` // enter / exit
	OccurredAt      time.Time `json:"occurred_at" db:"occurred_at"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
