package bridge

import (
	"time"

	"github.com/stonefield-labs/omnibridge/internal/bridges/omni"
)

// MQTT message payloads published and consumed by the bridge. All
// timestamps are UTC.

// StateMessage reports the decoded state of one controller object.
// Topic: omnibridge/controller/{address}/{kind}/{number}/state
// QoS: 1, Retained: Yes
type StateMessage struct {
	// Controller is the host:port address of the owning controller.
	Controller string `json:"controller"`

	// Kind is the object kind ("area", "zone", "unit").
	Kind string `json:"kind"`

	// Number is the object number on the controller.
	Number int `json:"number"`

	// Timestamp is when the state was observed.
	Timestamp time.Time `json:"timestamp"`

	// State is the decoded object state. Structure depends on kind:
	//   Unit: {"on": true, "level": 75, "text": "75%"}
	//   Zone: {"condition": "Secure", "latched": "Secure", "arming": "Disarmed", "loop": 100}
	//   Area: {"mode": "Day", "alarms": []}
	State map[string]any `json:"state"`
}

// CommandMessage is received on the object command topics.
// Topic: omnibridge/controller/{address}/{kind}/{number}/command
type CommandMessage struct {
	// ID correlates the command in logs. Optional.
	ID string `json:"id,omitempty"`

	// Timestamp is when the command was issued.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Command is the command name. Units accept "on", "off" and
	// "level"; areas accept "disarm" or a flavor mode name such as
	// "away" or "night".
	Command string `json:"command"`

	// Parameters carries command specific values.
	// Examples:
	//   {"level": 50} for unit level commands
	//   {"user": 1} for area security commands
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated. Optional.
	Source string `json:"source,omitempty"`
}

// AlarmMessage reports alarms newly raised in a security area.
// Topic: omnibridge/controller/{address}/area/{number}/alarm
type AlarmMessage struct {
	Controller string    `json:"controller"`
	Area       int       `json:"area"`
	Alarms     []string  `json:"alarms"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventMessage reports a named system event or an event log sweep.
// Topic: omnibridge/controller/{address}/event
type EventMessage struct {
	Controller string    `json:"controller"`
	Timestamp  time.Time `json:"timestamp"`

	// Type is "other" for named system events (phone line, AC power,
	// battery, energy cost) and "event_log" for log sweeps.
	Type string `json:"type"`

	// Name is the event name for "other" events.
	Name string `json:"name,omitempty"`

	// Lines holds formatted event log entries for "event_log" events.
	Lines []string `json:"lines,omitempty"`
}

// StatusMessage reports a controller connection state change.
// Topic: omnibridge/controller/{address}/status
// QoS: 1, Retained: Yes
type StatusMessage struct {
	Controller string    `json:"controller"`
	Status     string    `json:"status"` // "connected", "disconnected"
	Timestamp  time.Time `json:"timestamp"`
	Model      string    `json:"model,omitempty"`
	Firmware   string    `json:"firmware,omitempty"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline indicates the bridge is not connected (from LWT).
	HealthOffline HealthStatus = "offline"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the operational status of the bridge.
// Topic: omnibridge/system/health
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`

	// Controllers holds one entry per registered session.
	Controllers []ControllerHealth `json:"controllers,omitempty"`

	// Reason explains the status (especially for offline/degraded).
	Reason string `json:"reason,omitempty"`
}

// ControllerHealth is the per-session slice of a health message.
type ControllerHealth struct {
	Address              string     `json:"address"`
	State                string     `json:"state"`
	Requests             uint64     `json:"requests"`
	Notifications        uint64     `json:"notifications"`
	DroppedNotifications uint64     `json:"dropped_notifications"`
	Disconnects          uint64     `json:"disconnects"`
	Reconnects           uint64     `json:"reconnects"`
	ConnectedSince       *time.Time `json:"connected_since,omitempty"`
}

// NewStateMessage creates a state message for one object.
func NewStateMessage(controller, kind string, number int, state map[string]any) StateMessage {
	return StateMessage{
		Controller: controller,
		Kind:       kind,
		Number:     number,
		Timestamp:  time.Now().UTC(),
		State:      state,
	}
}

// NewStatusMessage creates a connection status message.
func NewStatusMessage(controller, status string) StatusMessage {
	return StatusMessage{
		Controller: controller,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
}

// NewControllerHealth builds a health slice from a session's counters.
func NewControllerHealth(address string, stats omni.Stats) ControllerHealth {
	h := ControllerHealth{
		Address:              address,
		State:                stats.State.String(),
		Requests:             stats.Requests,
		Notifications:        stats.Notifications,
		DroppedNotifications: stats.DroppedNotifications,
		Disconnects:          stats.Disconnects,
		Reconnects:           stats.Reconnects,
	}
	if !stats.ConnectedSince.IsZero() {
		since := stats.ConnectedSince
		h.ConnectedSince = &since
	}
	return h
}

// NewLWTMessage creates the Last Will and Testament health payload.
// The broker publishes it if the bridge disconnects unexpectedly.
func NewLWTMessage(version string) HealthMessage {
	return HealthMessage{
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Version:   version,
		Reason:    "unexpected_disconnect",
	}
}
