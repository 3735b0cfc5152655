package state

import "testing"

func zid(id int64) *int64 { return &id }

func TestMachineInitialState(t *testing.T) {
	m := NewMachine(1, nil, nil)
	if m.CurrentState() != StateOutside {
		t.Errorf("expected outside, got %s", m.CurrentState())
	}

	m2 := NewMachine(2, zid(7), nil)
	if m2.CurrentState() != StateInZone {
		t.Errorf("expected in_zone, got %s", m2.CurrentState())
	}
	if st := m2.GetState(); st.ZoneID == nil || *st.ZoneID != 7 {
		t.Errorf("expected zone 7, got %v", st.ZoneID)
	}
}

func TestMachineEnterAndExit(t *testing.T) {
	var transitions []string
	m := NewMachine(1, nil, func(assetID int64, from, to string) {
		transitions = append(transitions, from+"->"+to)
	})

	if err := m.SetZone(zid(3)); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if m.CurrentState() != StateInZone {
		t.Errorf("expected in_zone after enter, got %s", m.CurrentState())
	}

	if err := m.SetZone(nil); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if m.CurrentState() != StateOutside {
		t.Errorf("expected outside after exit, got %s", m.CurrentState())
	}

	if len(transitions) != 2 {
		t.Fatalf("expected 2 callbacks, got %d: %v", len(transitions), transitions)
	}
}

func TestMachineZoneToZoneMove(t *testing.T) {
	// A 直接到 B：退出旧围栏再进入新围栏
	m := NewMachine(1, zid(1), nil)
	if err := m.SetZone(zid(2)); err != nil {
		t.Fatalf("move: %v", err)
	}
	st := m.GetState()
	if st.CurrentState != StateInZone || st.ZoneID == nil || *st.ZoneID != 2 {
		t.Errorf("expected in_zone(2), got %s %v", st.CurrentState, st.ZoneID)
	}
}

func TestMachineSameZoneNoop(t *testing.T) {
	called := 0
	m := NewMachine(1, zid(5), func(int64, string, string) { called++ })
	if err := m.SetZone(zid(5)); err != nil {
		t.Fatalf("same zone: %v", err)
	}
	if called != 0 {
		t.Errorf("expected no transition callback, got %d", called)
	}
}

func TestManagerGetOrCreate(t *testing.T) {
	mgr := NewManager(nil)
	a := mgr.GetOrCreate(1, nil)
	b := mgr.GetOrCreate(1, zid(9))
	if a != b {
		t.Error("expected same machine for same asset")
	}
	if _, ok := mgr.Get(2); ok {
		t.Error("unexpected machine for unknown asset")
	}
	if states := mgr.GetAllStates(); len(states) != 1 {
		t.Errorf("expected 1 state, got %d", len(states))
	}
}
