package device

import (
	"fmt"
	"time"
)

// Object kinds stored in the registry. These mirror the controller's
// named object tables that the bridge enumerates after a handshake.
const (
	KindArea = "area"
	KindZone = "zone"
	KindUnit = "unit"
)

// Device represents one discovered controller object: a security area,
// a sensor zone or a controllable unit. Rows are keyed by the
// controller address plus the object's kind and number, so repeated
// enumerations upsert rather than duplicate.
type Device struct {
	// Identity
	ID         string `json:"id"`
	Controller string `json:"controller"` // host:port of the owning controller
	Kind       string `json:"kind"`
	Number     int    `json:"number"`
	Name       string `json:"name"`

	// Classification reported by the controller
	Area     int    `json:"area,omitempty"`      // owning security area (zones and units)
	TypeCode int    `json:"type_code,omitempty"` // raw device type byte
	TypeName string `json:"type_name,omitempty"` // decoded type name
	Dimmable bool   `json:"dimmable,omitempty"`  // units only

	// Last observed state
	State          State      `json:"state"`
	StateUpdatedAt *time.Time `json:"state_updated_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State holds the last decoded status for an object as a JSON map.
//
// Examples:
//
//	Unit: {"on": true, "level": 75, "text": "75%"}
//	Zone: {"condition": "Secure", "latched": "Secure", "arming": "Disarmed", "loop": 100}
//	Area: {"mode": "Off", "alarms": []}
type State map[string]any

// ObjectID builds the deterministic registry ID for a controller object.
func ObjectID(controller, kind string, number int) string {
	return fmt.Sprintf("%s/%s/%d", controller, kind, number)
}

// DeepCopy creates a complete independent copy of the Device.
// The State map is cloned so modifications to the copy do not affect
// the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields
	cpy.State = deepCopyMap(d.State)

	// Pointer fields (*time.Time) don't need deep copy
	// because time.Time is immutable in Go

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}
