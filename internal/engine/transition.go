package engine

import "github.com/langchou/fleetgazer/internal/models"

// ZoneChange 围栏穿越
type ZoneChange struct {
	Kind   string // enter / exit
	ZoneID int64
}

// DetectZoneTransitions 比较投影记忆的围栏与新解析结果
// 相同（含均为空）不产生穿越；不同则旧围栏非空先 exit，新围栏非空再 enter。
// 调用方必须保证只对比投影更新的事件调用本函数，过期事件不得参与比较
func DetectZoneTransitions(prev, next *int64) []ZoneChange {
	if equalZone(prev, next) {
		return nil
	}

	var changes []ZoneChange
	if prev != nil {
		changes = append(changes, ZoneChange{Kind: models.TransitionExit, ZoneID: *prev})
	}
	if next != nil {
		changes = append(changes, ZoneChange{Kind: models.TransitionEnter, ZoneID: *next})
	}
	return changes
}

func equalZone(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
