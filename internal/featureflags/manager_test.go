package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("unknown", 1) {
		t.Fatal("unknown flags must evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("percentage rollout requires non-zero userID")
	}
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	if !m.Enabled(Registration, 0) {
		t.Fatal("registration should be on by default")
	}
	if !m.Enabled(ActivityNotifications, 7) {
		t.Fatal("activity notifications should be on by default")
	}

	m = NewManager("REGISTRATION=off")
	if m.Enabled(Registration, 0) {
		t.Fatal("configured value must override the default")
	}

	var nilManager *Manager
	if nilManager.Enabled(Registration, 1) {
		t.Fatal("nil manager must report every flag disabled")
	}
	if len(nilManager.Raw()) != 0 {
		t.Fatal("nil manager must have no flags")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 3+len(Defaults) {
		t.Fatalf("expected %d parsed flags, got %d", 3+len(Defaults), len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot(123)
	if len(snap) != len(raw) {
		t.Fatalf("expected snapshot size %d, got %d", len(raw), len(snap))
	}
	if !snap[Registration] {
		t.Fatalf("expected registration in snapshot: %#v", snap)
	}
}
