package omni

import "errors"

// Sentinel errors for the omni bridge package.
// Use errors.Is to test for them; most are returned wrapped with context.
var (
	// ErrNotConfigured indicates a controller configuration problem that
	// cannot be fixed by retrying (bad address, malformed encryption key).
	ErrNotConfigured = errors.New("omni: controller not configured")

	// ErrConnection indicates a transport failure talking to the controller.
	// Retrying after the retry interval may succeed.
	ErrConnection = errors.New("omni: connection failed")

	// ErrNotConnected indicates a request was attempted while the session
	// has no live connection.
	ErrNotConnected = errors.New("omni: not connected")

	// ErrObjectNotDefined indicates an object number outside the set the
	// controller reported during enumeration.
	ErrObjectNotDefined = errors.New("omni: object not defined")

	// ErrUnknownCommand indicates a command name with no mapping for the
	// target object kind or controller flavor.
	ErrUnknownCommand = errors.New("omni: unknown command")

	// ErrSessionClosed indicates the session has been shut down.
	ErrSessionClosed = errors.New("omni: session closed")
)

// IsConfigurationError reports whether err is a permanent configuration
// problem. Sessions that fail this way are not retried.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsConnectionError reports whether err is a transient transport failure.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrNotConnected)
}

// IsNotDefined reports whether err refers to an object the controller
// does not define.
func IsNotDefined(err error) bool {
	return errors.Is(err, ErrObjectNotDefined)
}
