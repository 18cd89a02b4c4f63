package omni

import "time"

// NotificationListener receives unsolicited controller messages. The
// transport calls listeners from its receive goroutine, so they must
// not block; the session's listeners only enqueue.
type NotificationListener func(Notification)

// DisconnectListener is called once when the transport loses its
// connection, with the error that killed it.
type DisconnectListener func(error)

// Connector is the session's view of an Omni-Link transport. The
// protocol framing and encryption live behind this interface so the
// session and object caches can be driven by the in-memory Simulator
// in tests and demo mode.
//
// Request methods are synchronous: they send one message and return
// its reply. The session serializes calls, so implementations may
// assume a single in-flight request.
type Connector interface {
	// Connect establishes the transport connection and performs the
	// protocol handshake.
	Connect() error

	// Close tears the connection down. Safe to call more than once.
	Close() error

	// Connected reports whether the transport currently has a live
	// connection.
	Connected() bool

	// SetDebug toggles verbose wire logging.
	SetDebug(enabled bool)

	// AddNotificationListener registers a listener for unsolicited
	// messages. Must be called before EnableNotifications.
	AddNotificationListener(NotificationListener)

	// AddDisconnectListener registers a listener for connection loss.
	AddDisconnectListener(DisconnectListener)

	// EnableNotifications asks the controller to push object status
	// changes and system events.
	EnableNotifications() error

	ReqSystemInformation() (SystemInformation, error)
	ReqSystemStatus() (SystemStatus, error)
	ReqSystemTroubles() (SystemTroubles, error)
	ReqSystemFormats() (SystemFormats, error)
	ReqSystemFeatures() (SystemFeatures, error)
	ReqObjectTypeCapacities(kind ObjectKind) (ObjectTypeCapacities, error)

	// ReqObjectProperties returns the properties of the next object of
	// the given kind with a number greater than after, subject to the
	// filters. A reply whose MessageType is not MsgObjectProperties
	// means no more objects match.
	ReqObjectProperties(kind ObjectKind, after int, nameFilter, areaFilter, loadFilter int) (ObjectProperties, error)

	// ReqObjectStatus returns the packed status of objects first
	// through last inclusive.
	ReqObjectStatus(kind ObjectKind, first, last int) (ObjectStatus, error)

	// ControllerCommand executes a command with two parameters. For
	// unit commands p2 is the unit number; for security commands p1 is
	// the user code slot and p2 the area.
	ControllerCommand(command, p1, p2 int) error

	// UploadEventLogData returns the log record following the given
	// event number in the given direction (-1 for newest first). A
	// reply whose MessageType is not MsgEventLogData means the end of
	// the log.
	UploadEventLogData(eventNumber, direction int) (EventLogData, error)

	// ReqSecurityCodeValidation checks a four digit user code against
	// an area and returns the matching code slot and authority level.
	ReqSecurityCodeValidation(area, digit1, digit2, digit3, digit4 int) (SecurityCodeValidation, error)
}

// ConnectorConfig carries the parameters a Dialer needs to reach a
// controller.
type ConnectorConfig struct {
	Host    string
	Port    int
	Key     [16]byte
	Timeout time.Duration
}

// Dialer produces a Connector for a controller address. The daemon
// installs the real transport here; tests install NewSimulator.
type Dialer func(cfg ConnectorConfig) (Connector, error)
