package engine

import (
	"math"
	"sort"

	"github.com/langchou/fleetgazer/internal/models"
)

// 球面近似地球半径（米）
const earthRadiusM = 6371000.0

// HaversineMeters 计算两点间大圆距离（米）
// 球面近似，对 100m ~ 50km 量级的围栏半径足够精确
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// ResolveZone 解析坐标所在围栏
// 按围栏 ID 升序取第一个包含该点的围栏；重叠时先匹配者胜出，调用方不得假设互斥。
// 未命中返回 nil
func ResolveZone(lat, lon float64, zones []models.Zone) *models.Zone {
	ordered := make([]models.Zone, len(zones))
	copy(ordered, zones)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for i := range ordered {
		z := &ordered[i]
		if z.RadiusM <= 0 {
			continue
		}
		if HaversineMeters(lat, lon, z.Latitude, z.Longitude) <= z.RadiusM {
			return z
		}
	}
	return nil
}
