package device

import "fmt"

// Validation constants.
const (
	// maxNameLength bounds object names. Controller name fields are
	// short on the wire but imported names may be longer.
	maxNameLength = 100

	// maxObjectNumber is the largest addressable object number.
	maxObjectNumber = 65535

	// maxStateKeys bounds the state map to prevent memory exhaustion
	// from a misbehaving bridge.
	maxStateKeys = 100
)

// validKinds is the set of object kinds the registry accepts.
var validKinds = map[string]bool{
	KindArea: true,
	KindZone: true,
	KindUnit: true,
}

// ValidateDevice checks all fields of a device for validity.
// Returns the first validation error found, or nil if valid.
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidDevice)
	}
	if d.Controller == "" {
		return fmt.Errorf("%w: controller address is required", ErrInvalidController)
	}
	if !validKinds[d.Kind] {
		return fmt.Errorf("%w: %q", ErrInvalidKind, d.Kind)
	}
	if d.Number < 1 || d.Number > maxObjectNumber {
		return fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidNumber, d.Number, maxObjectNumber)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if len(d.State) > maxStateKeys {
		return fmt.Errorf("%w: state exceeds %d keys", ErrInvalidDevice, maxStateKeys)
	}
	if d.ID != "" && d.ID != ObjectID(d.Controller, d.Kind, d.Number) {
		return fmt.Errorf("%w: id %q does not match controller/kind/number", ErrInvalidDevice, d.ID)
	}
	return nil
}
