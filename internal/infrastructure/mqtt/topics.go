package mqtt

import "fmt"

// Topic prefixes for the OmniBridge MQTT surface.
//
// All controller topics use the scheme:
// omnibridge/controller/{address}/{kind}/{number}/{suffix}
// where address is the controller's host:port.
const (
	// TopicPrefix is the base for all OmniBridge topics.
	TopicPrefix = "omnibridge"

	// TopicPrefixController is the base for per-controller topics.
	TopicPrefixController = "omnibridge/controller"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "omnibridge/system"
)

// Topics provides builders for OmniBridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.ObjectState("192.168.1.50:4369", "unit", 1)
//	// Returns: "omnibridge/controller/192.168.1.50:4369/unit/1/state"
type Topics struct{}

// =============================================================================
// Controller Object Topics
// =============================================================================

// ObjectState returns the topic for state updates of one controller object.
//
// Example: omnibridge/controller/192.168.1.50:4369/unit/1/state
func (Topics) ObjectState(controller, kind string, number int) string {
	return fmt.Sprintf("%s/%s/%s/%d/state", TopicPrefixController, controller, kind, number)
}

// ObjectCommand returns the topic for commands to one controller object.
//
// Example: omnibridge/controller/192.168.1.50:4369/unit/1/command
func (Topics) ObjectCommand(controller, kind string, number int) string {
	return fmt.Sprintf("%s/%s/%s/%d/command", TopicPrefixController, controller, kind, number)
}

// AreaAlarm returns the topic for alarm transitions of one security area.
//
// Example: omnibridge/controller/192.168.1.50:4369/area/1/alarm
func (Topics) AreaAlarm(controller string, number int) string {
	return fmt.Sprintf("%s/%s/area/%d/alarm", TopicPrefixController, controller, number)
}

// ControllerEvent returns the topic for system events from one controller
// (power transitions, phone line state, X-10 traffic and the like).
//
// Example: omnibridge/controller/192.168.1.50:4369/event
func (Topics) ControllerEvent(controller string) string {
	return fmt.Sprintf("%s/%s/event", TopicPrefixController, controller)
}

// ControllerStatus returns the topic for session lifecycle updates of one
// controller (connected, disconnected, reconnected).
//
// Example: omnibridge/controller/192.168.1.50:4369/status
func (Topics) ControllerStatus(controller string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixController, controller)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the bridge online/offline status topic.
//
// Example: omnibridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemHealth returns the periodic health report topic.
//
// Example: omnibridge/system/health
func (Topics) SystemHealth() string {
	return fmt.Sprintf("%s/health", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllObjectCommands returns a pattern matching commands to any object.
//
// Pattern: omnibridge/controller/+/+/+/command
func (Topics) AllObjectCommands() string {
	return fmt.Sprintf("%s/+/+/+/command", TopicPrefixController)
}

// AllObjectStates returns a pattern matching state updates of any object.
//
// Pattern: omnibridge/controller/+/+/+/state
func (Topics) AllObjectStates() string {
	return fmt.Sprintf("%s/+/+/+/state", TopicPrefixController)
}

// AllControllerStatus returns a pattern matching all session lifecycle topics.
//
// Pattern: omnibridge/controller/+/status
func (Topics) AllControllerStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixController)
}

// AllTopics returns a pattern matching all OmniBridge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: omnibridge/#
func (Topics) AllTopics() string {
	return "omnibridge/#"
}
