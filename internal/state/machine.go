package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/shopspring/decimal"
)

// 资产围栏占用状态常量
const (
	StateOutside = "outside"
	StateInZone  = "in_zone"
)

// 事件常量
const (
	EventEnterZone = "enter_zone"
	EventExitZone  = "exit_zone"
)

// AssetLiveState 资产实时状态（内存镜像，广播用；权威数据在投影表）
type AssetLiveState struct {
	AssetID         int64            `json:"asset_id"`
	CurrentState    string           `json:"state"`
	Since           time.Time        `json:"since"`
	ZoneID          *int64           `json:"zone_id"`
	Latitude        *float64         `json:"latitude"`
	Longitude       *float64         `json:"longitude"`
	Odometer        *decimal.Decimal `json:"odometer"`
	ConsumptionRate *decimal.Decimal `json:"consumption_rate"`
	LastEventAt     time.Time        `json:"last_event_at"`
}

// Machine 单个资产的围栏占用状态机
type Machine struct {
	mu           sync.RWMutex
	assetID      int64
	fsm          *fsm.FSM
	state        *AssetLiveState
	onTransition func(assetID int64, from, to string)
}

// NewMachine 创建状态机
func NewMachine(assetID int64, initialZone *int64, onTransition func(assetID int64, from, to string)) *Machine {
	initialState := StateOutside
	if initialZone != nil {
		initialState = StateInZone
	}

	m := &Machine{
		assetID:      assetID,
		onTransition: onTransition,
		state: &AssetLiveState{
			AssetID:      assetID,
			CurrentState: initialState,
			Since:        time.Now(),
			ZoneID:       initialZone,
		},
	}

	m.fsm = fsm.NewFSM(
		initialState,
		fsm.Events{
			{Name: EventEnterZone, Src: []string{StateOutside}, Dst: StateInZone},
			{Name: EventExitZone, Src: []string{StateInZone}, Dst: StateOutside},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onTransition != nil && e.Src != e.Dst {
					m.onTransition(m.assetID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前占用状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// GetState 获取完整实时状态
func (m *Machine) GetState() *AssetLiveState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// 返回副本
	stateCopy := *m.state
	stateCopy.CurrentState = m.fsm.Current()
	return &stateCopy
}

// UpdateState 更新状态数据
func (m *Machine) UpdateState(update func(s *AssetLiveState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	update(m.state)
}

// SetZone 切换资产所在围栏
// 先退出旧围栏再进入新围栏，与穿越检测的 exit→enter 顺序一致
func (m *Machine) SetZone(zone *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fsm.Current() == StateInZone && (zone == nil || (m.state.ZoneID != nil && *m.state.ZoneID != *zone)) {
		if err := m.fsm.Event(context.Background(), EventExitZone); err != nil {
			return fmt.Errorf("trigger exit: %w", err)
		}
		m.state.ZoneID = nil
		m.state.Since = time.Now()
	}

	if zone != nil && m.fsm.Current() == StateOutside {
		if err := m.fsm.Event(context.Background(), EventEnterZone); err != nil {
			return fmt.Errorf("trigger enter: %w", err)
		}
		m.state.ZoneID = zone
		m.state.Since = time.Now()
	}

	m.state.CurrentState = m.fsm.Current()
	return nil
}

// Manager 状态机管理器，按资产 ID 维护
type Manager struct {
	mu       sync.RWMutex
	machines map[int64]*Machine
	onChange func(assetID int64, from, to string)
}

// NewManager 创建管理器
func NewManager(onChange func(assetID int64, from, to string)) *Manager {
	return &Manager{
		machines: make(map[int64]*Machine),
		onChange: onChange,
	}
}

// GetOrCreate 获取或创建状态机
func (m *Manager) GetOrCreate(assetID int64, initialZone *int64) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if machine, ok := m.machines[assetID]; ok {
		return machine
	}

	machine := NewMachine(assetID, initialZone, m.onChange)
	m.machines[assetID] = machine
	return machine
}

// Get 获取状态机
func (m *Manager) Get(assetID int64) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[assetID]
	return machine, ok
}

// GetAllStates 获取所有资产实时状态
func (m *Manager) GetAllStates() map[int64]*AssetLiveState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[int64]*AssetLiveState)
	for assetID, machine := range m.machines {
		states[assetID] = machine.GetState()
	}
	return states
}
