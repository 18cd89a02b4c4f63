package omni

import (
	"fmt"
	"strings"
)

// Decoding of the controller's packed binary encodings into display
// values. All functions here are total: any input byte produces a
// usable result, so a misbehaving controller can never wedge the
// notification path.

// FormatFirmware renders a firmware version from its three components.
// Revision 0 means no revision letter, 1 through 25 map to 'a' through
// 'y', and anything higher is a prototype revision counted down from
// 256 (254 renders as "X2").
func FormatFirmware(major, minor, revision int) string {
	var suffix string
	switch {
	case revision == 0:
		suffix = ""
	case revision < 26:
		suffix = string(rune('a' + revision - 1))
	default:
		suffix = fmt.Sprintf("X%d", 256-revision)
	}
	return fmt.Sprintf("%d.%d%s", major, minor, suffix)
}

const (
	areaModeMask     = 0b0111
	areaModeDelayBit = 0b1000
)

// AreaModeName decodes an area mode byte. The low three bits select a
// flavor-specific mode name and bit 3 marks a mode change in progress,
// which Omni panels call arming and Lumina panels call setting.
func AreaModeName(f Flavor, mode int) string {
	name, ok := modeNames[f][mode&areaModeMask]
	if !ok {
		name = "Unknown"
	}
	if mode&areaModeDelayBit != 0 {
		prefix := "Arming "
		if f == FlavorLumina {
			prefix = "Setting "
		}
		return prefix + name
	}
	return name
}

// DecodeAlarms expands an area alarm bitmask into alarm names, LSB
// first. Lumina panels only report freeze, water and temperature, so
// the other bits are ignored for that flavor.
func DecodeAlarms(f Flavor, mask int) []string {
	var alarms []string
	for i, name := range alarmNames {
		if mask&(1<<i) == 0 {
			continue
		}
		if f == FlavorLumina && !luminaAlarms[i] {
			continue
		}
		alarms = append(alarms, name)
	}
	return alarms
}

// ZoneState is the decoded form of a zone status byte plus its loop
// reading.
type ZoneState struct {
	Condition  string
	Latched    string
	Arming     string
	HadTrouble bool
	Loop       int
}

var (
	zoneConditions = []string{"Secure", "Not Ready", "Trouble", "Undefined"}
	zoneLatched    = []string{"Secure", "Tripped", "Reset", "Undefined"}
	zoneArmings    = []string{"Disarmed", "Armed", "User Bypass", "System Bypass"}
)

// DecodeZoneStatus unpacks a zone status byte. Bits 0-1 are the current
// condition, bits 2-3 the latched alarm state, bits 4-5 the arming
// state and bit 6 records whether the zone has had trouble.
func DecodeZoneStatus(status, loop int) ZoneState {
	return ZoneState{
		Condition:  zoneConditions[status&0b11],
		Latched:    zoneLatched[(status>>2)&0b11],
		Arming:     zoneArmings[(status>>4)&0b11],
		HadTrouble: status&0b1000000 != 0,
		Loop:       loop,
	}
}

// UnitState is the decoded form of a unit status byte. Level is only
// meaningful for dimmable units; status bytes that carry no level
// information report level 100 because the unit is known to be on.
type UnitState struct {
	On    bool
	Level int
	Text  string
	Time  int
}

// DecodeUnitStatus unpacks a unit status byte and its remaining-time
// counter. 0 is off, 1 is on, 2-13 select scenes A-L, 17-25 and 33-41
// are relative dim and brighten steps, and 100-200 encode a percentage
// level offset by 100.
func DecodeUnitStatus(status, seconds int) UnitState {
	st := UnitState{Time: seconds}
	switch {
	case status == 0:
		st.Text = "Off"
	case status == 1:
		st.On = true
		st.Level = 100
		st.Text = "On"
	case status >= 2 && status <= 13:
		st.On = true
		st.Level = 100
		st.Text = "Scene " + string(rune('A'+status-2))
	case status >= 17 && status <= 25:
		st.On = true
		st.Level = 100
		st.Text = fmt.Sprintf("Dim by %d", status-16)
	case status >= 33 && status <= 41:
		st.On = true
		st.Level = 100
		st.Text = fmt.Sprintf("Brighten by %d", status-32)
	case status >= 100 && status <= 200:
		st.Level = status - 100
		st.On = st.Level > 0
		st.Text = fmt.Sprintf("%d%%", status-100)
	default:
		// Some firmware stores the last command byte here. The unit is
		// on but the level is unknowable.
		st.On = true
		st.Level = 100
		st.Text = fmt.Sprintf("%d", status)
	}
	return st
}

// DecodeTroubles expands the trouble codes from a system troubles reply
// into a state map with every known trouble name present. The
// controller reuses two codes, so the table has duplicate names and the
// map has six distinct keys.
func DecodeTroubles(codes []int) map[string]bool {
	states := make(map[string]bool, len(troubleNames))
	for _, name := range troubleNames {
		states[name] = false
	}
	for _, code := range codes {
		if code >= 1 && code <= len(troubleNames) {
			states[troubleNames[code-1]] = true
		}
	}
	return states
}

// OtherEventName decodes a system event notification word. Only words
// whose high byte is 0x03 name an event; everything else is reported
// as unrecognized.
func OtherEventName(code int) (string, bool) {
	if code&otherEventMask != otherEventHigh {
		return "", false
	}
	low := code & 0xFF
	if low >= len(otherEventNames) {
		return "", false
	}
	return otherEventNames[low], true
}

// LogEventName returns the event name and parameter meanings for an
// event log type code. Codes 48 through 54 are disarm and arm events
// whose names carry the flavor's mode names.
func LogEventName(f Flavor, code int) (name, param1, param2 string) {
	if code >= 48 && code <= 54 {
		mode := code - 48
		if mode == 0 {
			return "Disarm", "User", "Unused"
		}
		modeName, ok := modeNames[f][mode]
		if !ok {
			modeName = "Unknown"
		}
		return "Arm " + modeName, "User", "Unused"
	}
	if entry, ok := logEventNames[code]; ok {
		return entry[0], entry[1], entry[2]
	}
	return "Unknown", "Unused", "Unused"
}

// logParamValue renders an event log parameter according to its meaning.
func logParamValue(kind string, value int) string {
	switch kind {
	case "User":
		if name, ok := specialUserCodes[value]; ok {
			return name
		}
	case "Area":
		if value == 0 {
			return "All"
		}
	case "Type":
		if name, ok := alarmTypes[value]; ok {
			return name
		}
		return "Unknown"
	}
	return fmt.Sprintf("%d", value)
}

// FormatLogEntry renders one event log record as a single report line,
// for example "Mar 28 10:30:00  Alarm Activated  Type: Temperature  Area: All".
// Records without a valid timestamp render "Unknown" in its place.
func FormatLogEntry(f Flavor, e EventLogData) string {
	timestamp := "Unknown"
	if e.TimeDataValid {
		// The controller logs no year. Render through a leap year so
		// Feb 29 entries survive.
		timestamp = fmt.Sprintf("%s %02d %02d:%02d:00",
			monthAbbrev(e.Month), e.Day, e.Hour, e.Minute)
	}

	name, p1, p2 := LogEventName(f, e.EventType)
	fields := []string{timestamp, name}
	if p1 != "Unused" {
		fields = append(fields, p1+": "+logParamValue(p1, e.Parameter1))
	}
	if p2 != "Unused" {
		fields = append(fields, p2+": "+logParamValue(p2, e.Parameter2))
	}
	return strings.Join(fields, "  ")
}

var monthAbbrevs = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

func monthAbbrev(m int) string {
	if m >= 1 && m <= 12 {
		return monthAbbrevs[m-1]
	}
	return "???"
}
