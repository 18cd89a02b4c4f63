package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidKind is returned when an object kind is not recognised.
	ErrInvalidKind = errors.New("device: invalid kind")

	// ErrInvalidNumber is returned when an object number is out of range.
	ErrInvalidNumber = errors.New("device: invalid number")

	// ErrInvalidController is returned when the controller address is empty.
	ErrInvalidController = errors.New("device: invalid controller")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")
)
