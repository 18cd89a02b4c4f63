package omni

import "fmt"

// Flavor distinguishes the two controller families. Omni panels are
// security-first, Lumina panels are lighting-first; mode names, the
// alarm set and a handful of display strings differ between them.
type Flavor int

const (
	FlavorOmni Flavor = iota
	FlavorLumina
)

func (f Flavor) String() string {
	if f == FlavorLumina {
		return "Lumina"
	}
	return "Omni"
}

// modelNames maps the model identifier from system information to a
// display name.
var modelNames = map[int]string{
	30: "HAI Omni IIe",
	16: "HAI OmniPro II",
	36: "HAI Lumina",
	37: "HAI Lumina Pro",
	38: "HAI Omni LTe",
}

// luminaModels holds the model identifiers that report Lumina semantics.
var luminaModels = map[int]bool{
	36: true,
	37: true,
}

// ModelName returns the display name for a controller model identifier.
func ModelName(model int) string {
	if name, ok := modelNames[model]; ok {
		return name
	}
	return fmt.Sprintf("Unknown model %d", model)
}

// FlavorForModel returns the controller flavor for a model identifier.
// Unknown models are treated as Omni.
func FlavorForModel(model int) Flavor {
	if luminaModels[model] {
		return FlavorLumina
	}
	return FlavorOmni
}

// modeNames maps the low three bits of an area mode byte to a display
// name, per flavor. Mode numbers not present decode as "Unknown".
var modeNames = map[Flavor]map[int]string{
	FlavorOmni: {
		0: "Off",
		1: "Day",
		2: "Night",
		3: "Away",
		4: "Vacation",
		5: "Day Instant",
		6: "Night Delayed",
	},
	FlavorLumina: {
		1: "Home",
		2: "Sleep",
		3: "Away",
		4: "Vacation",
		5: "Party",
		6: "Special",
	},
}

// alarmNames lists area alarm flags in bit order, LSB first.
var alarmNames = []string{
	"Burglary",
	"Fire",
	"Gas",
	"Auxiliary",
	"Freeze",
	"Water",
	"Duress",
	"Temperature",
}

// luminaAlarms holds the bit positions a Lumina panel can actually report.
var luminaAlarms = map[int]bool{
	4: true, // Freeze
	5: true, // Water
	7: true, // Temperature
}

// zoneTypeNames maps a zone type code to its display name. The code
// space has gaps; unknown codes render as "Unknown Zone Type N".
var zoneTypeNames = map[int]string{
	0:  "Entry/Exit",
	1:  "Perimeter",
	2:  "Night Interior",
	3:  "Away Interior",
	4:  "Double Entry Delay",
	5:  "Quadruple Entry Delay",
	6:  "Latching Perimeter",
	7:  "Latching Night Interior",
	8:  "Latching Away Interior",
	16: "Panic",
	17: "Police Emergency",
	18: "Duress",
	19: "Tamper",
	20: "Latching Tamper",
	32: "Fire",
	33: "Fire Emergency",
	34: "Gas Alarm",
	48: "Auxiliary Emergency",
	49: "Trouble",
	54: "Freeze",
	55: "Water",
	56: "Fire Tamper",
	64: "Auxiliary",
	65: "Keyswitch Input",
	80: "Program Energy Saver Module",
	81: "Outdoor Temperature",
	82: "Temperature",
	83: "Temperature Alarm",
	84: "Humidity",
	85: "Extended Range Temp Alarm",
}

// ZoneTypeName returns the display name for a zone type code.
func ZoneTypeName(code int) string {
	if name, ok := zoneTypeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Zone Type %d", code)
}

// unitTypeNames maps a unit type code to its display name.
var unitTypeNames = map[int]string{
	1:  "Standard Control",
	2:  "Extended Control",
	3:  "Compose Control",
	4:  "UPB Control",
	5:  "HLC Room Control",
	6:  "HLC Load Control",
	7:  "Lumina Mode Control",
	8:  "Radio RA Control",
	9:  "CentraLite Control",
	10: "Vizia RF Room Control",
	11: "Vizia RF Load Control",
	12: "Omni Controller Flag",
	13: "Voltage Output Control",
	14: "Audio Zone Control",
	15: "Audio Source Control",
}

// relayUnitTypes holds the unit type codes that are on/off only and
// carry no brightness level.
var relayUnitTypes = map[int]bool{
	12: true, // flag
	13: true, // voltage output
	14: true, // audio zone
	15: true, // audio source
}

// UnitTypeName returns the display name for a unit type code.
func UnitTypeName(code int) string {
	if name, ok := unitTypeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Unit Type %d", code)
}

// UnitTypeDimmable reports whether units of the given type code accept
// brightness levels.
func UnitTypeDimmable(code int) bool {
	_, known := unitTypeNames[code]
	return known && !relayUnitTypes[code]
}

// troubleNames maps system trouble codes (1-based) to state names. The
// controller reuses the freeze and battery codes at both ends of the
// table, so those names appear twice.
var troubleNames = []string{
	"freezeTrouble",
	"batteryLowTrouble",
	"ACPowerTrouble",
	"phoneLineTrouble",
	"digitalCommunicatorTrouble",
	"fuseTrouble",
	"freezeTrouble",
	"batteryLowTrouble",
}

// otherEventNames maps the low byte of a system event notification to a
// name. Only notifications whose high byte is otherEventHigh use this
// table.
var otherEventNames = []string{
	"phoneLineDead",
	"phoneLineRing",
	"phoneLineOffHook",
	"phoneLineOnHook",
	"ACPowerOff",
	"ACPowerRestored",
	"batteryLow",
	"batteryOK",
	"digitalCommunicatorModuleTrouble",
	"digitalCommunicatorModuleOK",
	"energyCostLow",
	"energyCostMid",
	"energyCostHigh",
	"energyCostCritical",
}

const (
	otherEventMask = 0xFF00
	otherEventHigh = 0x0300
)

// logEventNames maps an event log type code to the event name and the
// meanings of its two parameters. Arm and disarm events are handled
// separately because their names depend on the controller flavor.
var logEventNames = map[int][3]string{
	4:   {"Bypass", "User", "Zone"},
	5:   {"Restore", "User", "Zone"},
	6:   {"All Zones Restored", "User", "Area"},
	128: {"Zone Tripped", "Unused", "Zone"},
	129: {"Zone Trouble", "Unused", "Zone"},
	130: {"Remote Phone Access", "User", "Unused"},
	131: {"Remote Phone Lockout", "Unused", "Unused"},
	132: {"Auto Bypass", "Unused", "Zone"},
	133: {"Trouble Cleared", "Unused", "Zone"},
	134: {"PC Access", "User", "Unused"},
	135: {"Alarm Activated", "Type", "Area"},
	136: {"Alarm Reset", "Type", "Area"},
	137: {"System Reset", "Unused", "Unused"},
	138: {"Message Logged", "Unused", "Message Number"},
	139: {"Zone Shut Down", "Unused", "Zone"},
	140: {"Access Granted", "User Number", "Reader"},
	141: {"Access Denied", "User Number", "Reader"},
}

// specialUserCodes maps reserved user numbers in event log entries to
// display names.
var specialUserCodes = map[int]string{
	251: "Duress code",
	252: "Keyswitch",
	253: "Quick arm",
	254: "PC Access",
	255: "Programmed",
}

// alarmTypes maps the alarm type parameter of alarm events to a name.
var alarmTypes = map[int]string{
	1: "Burglary",
	2: "Fire",
	3: "Gas",
	4: "Auxiliary",
	5: "Freeze",
	6: "Water",
	7: "Duress",
	8: "Temperature",
}

// authorityNames maps security code validation authority levels to
// display names.
var authorityNames = map[int]string{
	0: "Invalid",
	1: "Master",
	2: "Manager",
	3: "User",
}

// AuthorityName returns the display name for an authority level.
func AuthorityName(level int) string {
	if name, ok := authorityNames[level]; ok {
		return name
	}
	return fmt.Sprintf("Unknown authority %d", level)
}
