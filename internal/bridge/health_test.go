package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stonefield-labs/omnibridge/internal/bridges/omni"
	"github.com/stonefield-labs/omnibridge/internal/infrastructure/mqtt"
)

// connectedRegistry returns a session registry with one connected
// simulator session.
func connectedRegistry(t *testing.T) *omni.Registry {
	t.Helper()

	sessions := omni.NewRegistry(omni.SimulatorDialer(newTestSimulator()))
	t.Cleanup(sessions.CloseAll)

	sess, err := sessions.GetOrCreate(testConfig())
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if err := sess.Connect(); err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	return sessions
}

func TestNewHealthReporter(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{
		Version:  "1.0.0",
		Interval: 5 * time.Second,
	})

	if hr.version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", hr.version)
	}
	if hr.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", hr.interval)
	}
}

func TestHealthReporterDefaultInterval(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{})

	if hr.interval != 30*time.Second {
		t.Errorf("default interval = %v, want 30s", hr.interval)
	}
}

func TestHealthReporterPublishNow(t *testing.T) {
	pub := newMockMQTT()
	sessions := connectedRegistry(t)

	hr := NewHealthReporter(HealthReporterConfig{
		Version:   "2.0.0",
		Publisher: pub,
		Sessions:  sessions,
	})

	if err := hr.PublishNow(); err != nil {
		t.Fatalf("PublishNow failed: %v", err)
	}

	payload, ok := pub.last(mqtt.Topics{}.SystemHealth())
	if !ok {
		t.Fatal("no health message published")
	}

	var health HealthMessage
	if err := json.Unmarshal(payload, &health); err != nil {
		t.Fatalf("failed to unmarshal health message: %v", err)
	}

	if health.Status != HealthHealthy {
		t.Errorf("Status = %q, want %q", health.Status, HealthHealthy)
	}
	if health.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", health.Version)
	}
	if len(health.Controllers) != 1 {
		t.Fatalf("Controllers = %d, want 1", len(health.Controllers))
	}
	ctrl := health.Controllers[0]
	if ctrl.Address != testAddr {
		t.Errorf("controller address = %q, want %q", ctrl.Address, testAddr)
	}
	if ctrl.State != "connected" {
		t.Errorf("controller state = %q, want connected", ctrl.State)
	}
	if ctrl.ConnectedSince == nil {
		t.Error("controller ConnectedSince should be set")
	}
}

func TestHealthReporterDegradedWhenSessionDisconnected(t *testing.T) {
	pub := newMockMQTT()

	sessions := omni.NewRegistry(omni.SimulatorDialer(newTestSimulator()))
	t.Cleanup(sessions.CloseAll)

	// Registered but never connected.
	if _, err := sessions.GetOrCreate(testConfig()); err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}

	hr := NewHealthReporter(HealthReporterConfig{
		Publisher: pub,
		Sessions:  sessions,
	})

	status, reason := hr.determineStatus()
	if status != HealthDegraded {
		t.Errorf("Status = %q, want %q", status, HealthDegraded)
	}
	if !strings.Contains(reason, "not connected") {
		t.Errorf("Reason = %q, want it to name the disconnected controller", reason)
	}
}

func TestHealthReporterDegradedWhenMQTTDisconnected(t *testing.T) {
	pub := newMockMQTT()
	pub.connected = false

	hr := NewHealthReporter(HealthReporterConfig{
		Publisher: pub,
		Sessions:  connectedRegistry(t),
	})

	status, reason := hr.determineStatus()
	if status != HealthDegraded {
		t.Errorf("Status = %q, want %q", status, HealthDegraded)
	}
	if reason != "MQTT disconnected" {
		t.Errorf("Reason = %q, want 'MQTT disconnected'", reason)
	}
}

func TestHealthReporterPublishStarting(t *testing.T) {
	pub := newMockMQTT()

	hr := NewHealthReporter(HealthReporterConfig{Publisher: pub})
	if err := hr.PublishStarting(); err != nil {
		t.Fatalf("PublishStarting failed: %v", err)
	}

	payload, ok := pub.last(mqtt.Topics{}.SystemHealth())
	if !ok {
		t.Fatal("no health message published")
	}

	var health HealthMessage
	if err := json.Unmarshal(payload, &health); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if health.Status != HealthStarting {
		t.Errorf("Status = %q, want %q", health.Status, HealthStarting)
	}
}

func TestHealthReporterLWT(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{Version: "3.1.0"})

	wantTopic := mqtt.Topics{}.SystemHealth()
	if got := hr.GetLWTTopic(); got != wantTopic {
		t.Errorf("GetLWTTopic() = %q, want %q", got, wantTopic)
	}

	payload, err := hr.GetLWTPayload()
	if err != nil {
		t.Fatalf("GetLWTPayload failed: %v", err)
	}

	var health HealthMessage
	if err := json.Unmarshal(payload, &health); err != nil {
		t.Fatalf("failed to unmarshal LWT: %v", err)
	}
	if health.Status != HealthOffline {
		t.Errorf("LWT Status = %q, want %q", health.Status, HealthOffline)
	}
	if health.Version != "3.1.0" {
		t.Errorf("LWT Version = %q, want 3.1.0", health.Version)
	}
}

func TestHealthReporterStartStop(t *testing.T) {
	pub := newMockMQTT()

	hr := NewHealthReporter(HealthReporterConfig{
		Publisher: pub,
		Sessions:  connectedRegistry(t),
		Interval:  10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hr.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := pub.last(mqtt.Topics{}.SystemHealth()); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no health message published after Start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hr.Stop()
	hr.Stop() // idempotent

	payload, _ := pub.last(mqtt.Topics{}.SystemHealth())
	var health HealthMessage
	if err := json.Unmarshal(payload, &health); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if health.Status != HealthStopping {
		t.Errorf("final Status = %q, want %q", health.Status, HealthStopping)
	}
}
