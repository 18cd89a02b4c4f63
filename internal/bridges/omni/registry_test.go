package omni

import (
	"testing"
	"time"
)

func registryConfig(host string) Config {
	cfg := validConfig()
	cfg.Host = host
	cfg.RetryInterval = 10 * time.Millisecond
	return cfg
}

func TestRegistryGetOrCreateSharesSessions(t *testing.T) {
	reg := NewRegistry(SimulatorDialer(newTestSimulator()))
	defer reg.CloseAll()

	first, err := reg.GetOrCreate(registryConfig("192.168.1.10"))
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	second, err := reg.GetOrCreate(registryConfig("192.168.1.10"))
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if first != second {
		t.Error("same address produced two sessions")
	}

	other, err := reg.GetOrCreate(registryConfig("192.168.1.11"))
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if other == first {
		t.Error("different addresses share a session")
	}
}

func TestRegistryGetOrCreateReplacesOnConfigChange(t *testing.T) {
	reg := NewRegistry(SimulatorDialer(newTestSimulator()))
	defer reg.CloseAll()

	first, err := reg.GetOrCreate(registryConfig("192.168.1.10"))
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if err := first.Connect(); err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}

	changed := registryConfig("192.168.1.10")
	changed.KeyPart1 = "AA-BB-CC-DD-EE-FF-00-11"
	second, err := reg.GetOrCreate(changed)
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}

	if second == first {
		t.Fatal("changed config should replace the session")
	}
	if err := first.Connect(); err == nil {
		t.Error("stale session should be closed")
	}
	if second.State() != StateIdle {
		t.Errorf("replacement state = %v, want idle", second.State())
	}

	reg.UpdateAll()
	if !second.Connected() {
		t.Error("replacement did not connect on the next update")
	}
}

func TestRegistryGetOrCreateRejectsBadConfig(t *testing.T) {
	reg := NewRegistry(SimulatorDialer(newTestSimulator()))
	defer reg.CloseAll()

	cfg := registryConfig("192.168.1.10")
	cfg.KeyPart2 = "garbage"
	if _, err := reg.GetOrCreate(cfg); !IsConfigurationError(err) {
		t.Errorf("GetOrCreate() error = %v, want configuration error", err)
	}
	if len(reg.List()) != 0 {
		t.Error("failed session was stored")
	}
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(SimulatorDialer(newTestSimulator()))
	defer reg.CloseAll()

	if _, ok := reg.Get("192.168.1.10:4369"); ok {
		t.Error("Get() found a session in an empty registry")
	}

	if _, err := reg.GetOrCreate(registryConfig("192.168.1.10")); err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if _, ok := reg.Get("192.168.1.10:4369"); !ok {
		t.Error("Get() did not find the created session")
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry(SimulatorDialer(newTestSimulator()))
	defer reg.CloseAll()

	sess, err := reg.GetOrCreate(registryConfig("192.168.1.10"))
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}

	reg.Remove("192.168.1.10:4369")
	if _, ok := reg.Get("192.168.1.10:4369"); ok {
		t.Error("session still present after Remove")
	}
	if err := sess.Connect(); err == nil {
		t.Error("removed session should be closed")
	}
}

func TestRegistryListOrdered(t *testing.T) {
	reg := NewRegistry(SimulatorDialer(newTestSimulator()))
	defer reg.CloseAll()

	for _, host := range []string{"192.168.1.30", "192.168.1.10", "192.168.1.20"} {
		if _, err := reg.GetOrCreate(registryConfig(host)); err != nil {
			t.Fatalf("GetOrCreate(%s) unexpected error: %v", host, err)
		}
	}

	sessions := reg.List()
	if len(sessions) != 3 {
		t.Fatalf("List() returned %d sessions, want 3", len(sessions))
	}
	want := []string{"192.168.1.10:4369", "192.168.1.20:4369", "192.168.1.30:4369"}
	for i, sess := range sessions {
		if sess.Address() != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, sess.Address(), want[i])
		}
	}
}

func TestRegistryUpdateAllConnectsIdleSessions(t *testing.T) {
	reg := NewRegistry(SimulatorDialer(newTestSimulator()))
	defer reg.CloseAll()

	sess, err := reg.GetOrCreate(registryConfig("192.168.1.10"))
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if sess.State() != StateIdle {
		t.Fatalf("state = %v, want idle", sess.State())
	}

	reg.UpdateAll()
	if sess.State() != StateConnected {
		t.Errorf("state after UpdateAll = %v, want connected", sess.State())
	}
}
