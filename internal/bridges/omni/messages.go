package omni

// ObjectKind identifies a controller object type. The values are the
// object type codes used on the wire.
type ObjectKind int

const (
	KindZone        ObjectKind = 1
	KindUnit        ObjectKind = 2
	KindButton      ObjectKind = 3
	KindCode        ObjectKind = 4
	KindArea        ObjectKind = 5
	KindThermostat  ObjectKind = 6
	KindMessage     ObjectKind = 7
	KindAuxSensor   ObjectKind = 8
	KindAudioZone   ObjectKind = 9
	KindAudioSource ObjectKind = 10
)

func (k ObjectKind) String() string {
	switch k {
	case KindZone:
		return "zone"
	case KindUnit:
		return "unit"
	case KindButton:
		return "button"
	case KindCode:
		return "code"
	case KindArea:
		return "area"
	case KindThermostat:
		return "thermostat"
	case KindMessage:
		return "message"
	case KindAuxSensor:
		return "aux sensor"
	case KindAudioZone:
		return "audio zone"
	case KindAudioSource:
		return "audio source"
	}
	return "unknown"
}

// MessageType identifies the shape of a controller reply. The session
// layer uses it to detect the end of paged transfers; the transport
// maps it to and from wire message numbers.
type MessageType int

const (
	MsgNone MessageType = iota
	MsgAck
	MsgNegativeAck
	MsgEndOfData
	MsgSystemInformation
	MsgSystemStatus
	MsgSystemTroubles
	MsgSystemFormats
	MsgSystemFeatures
	MsgObjectTypeCapacities
	MsgObjectProperties
	MsgObjectStatus
	MsgEventLogData
	MsgSecurityCodeValidation
)

// Property query filters for ReqObjectProperties. The name filter
// selects by whether objects are named, the area filter restricts to an
// area (or any), and the load filter restricts units by load type.
const (
	FilterNameNone    = 0
	FilterNameNamed   = 1
	FilterNameUnnamed = 2
	FilterNameAny     = 3
)

const (
	FilterAreaNone = 0
	FilterAreaAny  = 1
)

const (
	FilterLoadNone = 0
	FilterLoadAny  = 1
)

// Controller command codes.
const (
	cmdUnitOff       = 0
	cmdUnitOn        = 1
	cmdSecurityBase  = 48 // disarm; arm commands are 48 plus the mode number
	cmdUnitPercent   = 101
	cmdConsoleBeeper = 102
	cmdConsoleBeep   = 103
)

// SystemInformation is the reply to ReqSystemInformation.
type SystemInformation struct {
	Model    int
	Major    int
	Minor    int
	Revision int
	Phone    string
}

// SystemStatus is the reply to ReqSystemStatus.
type SystemStatus struct {
	TimeDateValid   bool
	Year            int
	Month           int
	Day             int
	DayOfWeek       int
	Hour            int
	Minute          int
	Second          int
	DaylightSavings bool
	SunriseHour     int
	SunriseMinute   int
	SunsetHour      int
	SunsetMinute    int
	BatteryReading  int
	AlarmAreas      []int
}

// SystemTroubles is the reply to ReqSystemTroubles. Troubles holds
// 1-based trouble codes.
type SystemTroubles struct {
	Troubles []int
}

// SystemFormats is the reply to ReqSystemFormats. A value of 1 selects
// Fahrenheit, 12 hour time and MMDD dates respectively.
type SystemFormats struct {
	TempFormat int
	TimeFormat int
	DateFormat int
}

// SystemFeatures is the reply to ReqSystemFeatures.
type SystemFeatures struct {
	Features []string
}

// ObjectTypeCapacities is the reply to ReqObjectTypeCapacities.
type ObjectTypeCapacities struct {
	Kind     ObjectKind
	Capacity int
}

// ObjectProperties is the reply to ReqObjectProperties. It carries the
// union of the per-kind property fields; which fields are meaningful
// depends on Kind. A MessageType other than MsgObjectProperties marks
// the end of an enumeration.
type ObjectProperties struct {
	MessageType MessageType
	Kind        ObjectKind
	Number      int
	Name        string

	// Area properties.
	Enabled    bool
	ExitDelay  int
	EntryDelay int

	// Zone properties.
	ZoneType int
	Area     int
	Options  int

	// Unit properties.
	UnitType int
}

// StatusRecord is one object's packed status inside an ObjectStatus
// reply or notification. Field use depends on the object kind: zones
// use Status and Loop, units use Status and Time, areas use Mode,
// Alarms and the two timers.
type StatusRecord struct {
	Number     int
	Status     int
	Loop       int
	Time       int
	Mode       int
	Alarms     int
	EntryTimer int
	ExitTimer  int
}

// ObjectStatus is the reply to ReqObjectStatus and the payload of
// status change notifications.
type ObjectStatus struct {
	Kind    ObjectKind
	Records []StatusRecord
}

// EventLogData is one record from the controller's event log. A
// MessageType other than MsgEventLogData marks the end of the log.
type EventLogData struct {
	MessageType   MessageType
	EventNumber   int
	TimeDataValid bool
	Month         int
	Day           int
	Hour          int
	Minute        int
	EventType     int
	Parameter1    int
	Parameter2    int
}

// SecurityCodeValidation is the reply to ReqSecurityCodeValidation.
// CodeNumber is the matching user code slot, or a reserved value for
// special codes; AuthorityLevel 0 means the code was rejected.
type SecurityCodeValidation struct {
	CodeNumber     int
	AuthorityLevel int
}

// OtherEventNotifications carries the packed system event words pushed
// by the controller outside object status reporting.
type OtherEventNotifications struct {
	Notifications []int
}

// Notification is a single unsolicited message from the controller.
// Exactly one field is non-nil.
type Notification struct {
	Status *ObjectStatus
	Other  *OtherEventNotifications
}
