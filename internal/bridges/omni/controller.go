package omni

import (
	"fmt"
	"sync"
)

// defaultLogLimit bounds event log retrieval when no limit is given.
const defaultLogLimit = 20

// capacityKinds lists the object kinds whose capacities are fetched
// during the handshake, in report order.
var capacityKinds = []ObjectKind{
	KindZone, KindUnit, KindArea, KindButton, KindCode,
	KindThermostat, KindMessage, KindAudioZone, KindAudioSource,
}

// ControllerStatus is the decoded system status of the panel itself.
type ControllerStatus struct {
	BatteryReading int
	Troubles       map[string]bool
}

// ControllerInfo caches panel level information for one session: model
// and firmware, display formats, feature list, object capacities and
// the latest battery and trouble readings.
type ControllerInfo struct {
	sess *Session

	mu         sync.Mutex
	info       SystemInformation
	model      string
	firmware   string
	flavor     Flavor
	formats    SystemFormats
	features   []string
	capacities map[ObjectKind]int
	status     ControllerStatus
}

func newControllerInfo(s *Session) *ControllerInfo {
	return &ControllerInfo{
		sess:       s,
		capacities: make(map[ObjectKind]int),
	}
}

// refresh performs the panel half of the handshake: system
// information, formats, features and object capacities. Called with
// the session request lock held. The flavor derived here drives every
// flavor dependent decode for the rest of the session.
func (c *ControllerInfo) refresh(conn Connector) error {
	info, err := conn.ReqSystemInformation()
	if err != nil {
		return fmt.Errorf("requesting system information: %w", err)
	}

	formats, err := conn.ReqSystemFormats()
	if err != nil {
		return fmt.Errorf("requesting system formats: %w", err)
	}

	features, err := conn.ReqSystemFeatures()
	if err != nil {
		return fmt.Errorf("requesting system features: %w", err)
	}

	capacities := make(map[ObjectKind]int, len(capacityKinds))
	for _, kind := range capacityKinds {
		reply, err := conn.ReqObjectTypeCapacities(kind)
		if err != nil {
			return fmt.Errorf("requesting %s capacity: %w", kind, err)
		}
		capacities[kind] = reply.Capacity
	}

	c.mu.Lock()
	c.info = info
	c.model = ModelName(info.Model)
	c.firmware = FormatFirmware(info.Major, info.Minor, info.Revision)
	c.flavor = FlavorForModel(info.Model)
	c.formats = formats
	c.features = features.Features
	c.capacities = capacities
	c.mu.Unlock()
	return nil
}

// refreshStatus fetches battery and trouble readings. Called with the
// session request lock held.
func (c *ControllerInfo) refreshStatus(conn Connector) error {
	status, err := conn.ReqSystemStatus()
	if err != nil {
		return fmt.Errorf("requesting system status: %w", err)
	}
	troubles, err := conn.ReqSystemTroubles()
	if err != nil {
		return fmt.Errorf("requesting system troubles: %w", err)
	}

	c.mu.Lock()
	c.status = ControllerStatus{
		BatteryReading: status.BatteryReading,
		Troubles:       DecodeTroubles(troubles.Troubles),
	}
	c.mu.Unlock()
	return nil
}

// Model returns the panel's display model name.
func (c *ControllerInfo) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Firmware returns the panel's firmware version string.
func (c *ControllerInfo) Firmware() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.firmware
}

// Flavor returns the controller flavor derived from the model.
func (c *ControllerInfo) Flavor() Flavor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flavor
}

// Information returns the raw system information reply.
func (c *ControllerInfo) Information() SystemInformation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Formats returns the panel's display format settings.
func (c *ControllerInfo) Formats() SystemFormats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formats
}

// Features returns the panel's licensed feature names.
func (c *ControllerInfo) Features() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.features))
	copy(out, c.features)
	return out
}

// Capacity returns the maximum object count for a kind.
func (c *ControllerInfo) Capacity(kind ObjectKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacities[kind]
}

// Status returns the last fetched battery and trouble readings.
func (c *ControllerInfo) Status() ControllerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := ControllerStatus{
		BatteryReading: c.status.BatteryReading,
		Troubles:       make(map[string]bool, len(c.status.Troubles)),
	}
	for k, v := range c.status.Troubles {
		st.Troubles[k] = v
	}
	return st
}

// FetchStatus requests fresh battery and trouble readings from the
// controller and updates the cache.
func (c *ControllerInfo) FetchStatus() (ControllerStatus, error) {
	err := c.sess.request(func(conn Connector) error {
		return c.refreshStatus(conn)
	})
	if err != nil {
		return ControllerStatus{}, err
	}
	return c.Status(), nil
}

// EventLog retrieves up to limit records from the controller's event
// log, newest first. A non positive limit retrieves 20.
func (c *ControllerInfo) EventLog(limit int) ([]EventLogData, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}

	var entries []EventLogData
	err := c.sess.request(func(conn Connector) error {
		number := 0
		for len(entries) < limit {
			reply, err := conn.UploadEventLogData(number, -1)
			if err != nil {
				return fmt.Errorf("uploading event log: %w", err)
			}
			if reply.MessageType != MsgEventLogData {
				break
			}
			entries = append(entries, reply)
			number = reply.EventNumber
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ValidateSecurityCode checks a four digit user code against an area
// and returns the matching code slot and authority level. The code
// must be "0001" through "9999" and the area 1 through 255.
func (c *ControllerInfo) ValidateSecurityCode(code string, area int) (SecurityCodeValidation, error) {
	digits, err := codeDigits(code)
	if err != nil {
		return SecurityCodeValidation{}, err
	}
	if area < 1 || area > 255 {
		return SecurityCodeValidation{},
			fmt.Errorf("%w: area %d is not between 1 and 255", ErrNotConfigured, area)
	}

	var result SecurityCodeValidation
	reqErr := c.sess.request(func(conn Connector) error {
		reply, err := conn.ReqSecurityCodeValidation(area,
			digits[0], digits[1], digits[2], digits[3])
		if err != nil {
			return err
		}
		result = reply
		return nil
	})
	if reqErr != nil {
		return SecurityCodeValidation{}, reqErr
	}
	return result, nil
}

func codeDigits(code string) ([4]int, error) {
	var digits [4]int
	valid := len(code) == 4 && code != "0000"
	if valid {
		for i, r := range code {
			if r < '0' || r > '9' {
				valid = false
				break
			}
			digits[i] = int(r - '0')
		}
	}
	if !valid {
		return digits,
			fmt.Errorf("%w: security code %q is not between 0001 and 9999", ErrNotConfigured, code)
	}
	return digits, nil
}

// SetBeeper enables or disables the beeper on a console. Console 0
// addresses all consoles.
func (c *ControllerInfo) SetBeeper(console int, enabled bool) error {
	p1 := 0
	if enabled {
		p1 = 1
	}
	return c.sess.request(func(conn Connector) error {
		return conn.ControllerCommand(cmdConsoleBeeper, p1, console)
	})
}

// Beep sounds a console beep. Code 0 is off, 1 a single beep, and 2
// through 6 beep one to five times. Console 0 addresses all consoles.
func (c *ControllerInfo) Beep(console, code int) error {
	if code < 0 || code > 6 {
		return fmt.Errorf("%w: %d is not a valid beep command", ErrUnknownCommand, code)
	}
	return c.sess.request(func(conn Connector) error {
		return conn.ControllerCommand(cmdConsoleBeep, code, console)
	})
}

// applyOther decodes system event notification words into events.
// Words outside the named event range are dropped with a debug log.
func (c *ControllerInfo) applyOther(codes []int) []Event {
	var events []Event
	for _, code := range codes {
		name, ok := OtherEventName(code)
		if !ok {
			c.sess.logDebug("dropping unrecognized event notification", "code", fmt.Sprintf("%#04x", code))
			continue
		}
		events = append(events, Event{
			Type:    EventOther,
			Address: c.sess.Address(),
			Name:    name,
		})
	}
	return events
}
