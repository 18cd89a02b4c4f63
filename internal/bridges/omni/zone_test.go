package omni

import "testing"

func TestZoneEnumerationSkipsUnnamed(t *testing.T) {
	sess := connectTestSession(t, newTestSimulator())

	props := sess.Zones().Properties()
	if _, ok := props[7]; ok {
		t.Error("unnamed zone 7 should not be enumerated")
	}

	door, ok := props[1]
	if !ok {
		t.Fatal("zone 1 not enumerated")
	}
	if door.TypeName != "Entry/Exit" || door.Area != 1 {
		t.Errorf("zone 1 props = %+v", door)
	}
	// Options 0b101: cross zoning and dial out delay.
	if !door.CrossZoning || door.SwingerShutdown || !door.DialOutDelay {
		t.Errorf("zone 1 options = %+v", door)
	}
}

func TestZoneFetchStatus(t *testing.T) {
	sim := newTestSimulator()
	sess := connectTestSession(t, sim)

	st, err := sess.Zones().FetchStatus(2)
	if err != nil {
		t.Fatalf("FetchStatus() unexpected error: %v", err)
	}
	if st.Condition != "Not Ready" {
		t.Errorf("condition = %q, want %q", st.Condition, "Not Ready")
	}
	if st.Loop != 82 {
		t.Errorf("loop = %d, want 82", st.Loop)
	}
}

func TestZoneFetchStatusNotDefined(t *testing.T) {
	sess := connectTestSession(t, newTestSimulator())

	if _, err := sess.Zones().FetchStatus(7); !IsNotDefined(err) {
		t.Errorf("FetchStatus(7) error = %v, want not defined", err)
	}
}

func TestZoneStatusNotificationUpdatesCache(t *testing.T) {
	sim := newTestSimulator()
	sess := connectTestSession(t, sim)

	sim.PushStatus(KindZone, StatusRecord{Number: 1, Status: 0b0010101, Loop: 90})
	sess.Update()

	waitFor(t, "zone cache update", func() bool {
		st, ok := sess.Zones().State(1)
		return ok && st.Condition == "Not Ready"
	})

	st, _ := sess.Zones().State(1)
	if st.Latched != "Tripped" || st.Arming != "Armed" || st.Loop != 90 {
		t.Errorf("cached state = %+v", st)
	}
}
