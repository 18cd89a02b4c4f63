package omni

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Simulator is an in-memory Connector backed by a configurable object
// table. It stands in for a real panel in tests and in the daemon's
// demo mode: commands mutate object state and, when notifications are
// enabled, push status changes back through the listeners just like a
// live controller.
type Simulator struct {
	mu sync.Mutex

	connected            bool
	debug                bool
	notificationsEnabled bool
	connectErr           error

	info       SystemInformation
	status     SystemStatus
	troubles   []int
	formats    SystemFormats
	features   []string
	capacities map[ObjectKind]int

	objects map[ObjectKind]map[int]*simObject
	log     []EventLogData
	codes   map[string]SecurityCodeValidation

	commands [][3]int

	notifyListeners     []NotificationListener
	disconnectListeners []DisconnectListener
}

var _ Connector = (*Simulator)(nil)

type simObject struct {
	props  ObjectProperties
	status StatusRecord
}

// NewSimulator creates a simulator presenting an OmniPro II with no
// objects defined.
func NewSimulator() *Simulator {
	return &Simulator{
		info: SystemInformation{
			Model:    16,
			Major:    3,
			Minor:    0,
			Revision: 2,
			Phone:    "",
		},
		status:  SystemStatus{BatteryReading: 200},
		formats: SystemFormats{TempFormat: 1, TimeFormat: 1, DateFormat: 1},
		capacities: map[ObjectKind]int{
			KindZone: 176, KindUnit: 511, KindArea: 8, KindButton: 128,
			KindCode: 99, KindThermostat: 64, KindMessage: 128,
			KindAudioZone: 8, KindAudioSource: 8,
		},
		objects: map[ObjectKind]map[int]*simObject{
			KindArea: {},
			KindZone: {},
			KindUnit: {},
		},
		codes: make(map[string]SecurityCodeValidation),
	}
}

// ─── Seeding ───

// SetSystemInformation replaces the simulated panel identity.
func (s *Simulator) SetSystemInformation(info SystemInformation) {
	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
}

// SetSystemStatus replaces the simulated system status.
func (s *Simulator) SetSystemStatus(status SystemStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// SetTroubles replaces the active trouble codes.
func (s *Simulator) SetTroubles(codes []int) {
	s.mu.Lock()
	s.troubles = append([]int(nil), codes...)
	s.mu.Unlock()
}

// SetFeatures replaces the licensed feature list.
func (s *Simulator) SetFeatures(features []string) {
	s.mu.Lock()
	s.features = append([]string(nil), features...)
	s.mu.Unlock()
}

// AddArea defines an area.
func (s *Simulator) AddArea(number int, name string, enabled bool, entryDelay, exitDelay int) {
	s.mu.Lock()
	s.objects[KindArea][number] = &simObject{
		props: ObjectProperties{
			MessageType: MsgObjectProperties,
			Kind:        KindArea,
			Number:      number,
			Name:        name,
			Enabled:     enabled,
			EntryDelay:  entryDelay,
			ExitDelay:   exitDelay,
		},
		status: StatusRecord{Number: number},
	}
	s.mu.Unlock()
}

// AddZone defines a zone with an initial packed status byte and loop
// reading.
func (s *Simulator) AddZone(number int, name string, zoneType, area, options, status, loop int) {
	s.mu.Lock()
	s.objects[KindZone][number] = &simObject{
		props: ObjectProperties{
			MessageType: MsgObjectProperties,
			Kind:        KindZone,
			Number:      number,
			Name:        name,
			ZoneType:    zoneType,
			Area:        area,
			Options:     options,
		},
		status: StatusRecord{Number: number, Status: status, Loop: loop},
	}
	s.mu.Unlock()
}

// AddUnit defines a unit with an initial packed status byte.
func (s *Simulator) AddUnit(number int, name string, unitType, status int) {
	s.mu.Lock()
	s.objects[KindUnit][number] = &simObject{
		props: ObjectProperties{
			MessageType: MsgObjectProperties,
			Kind:        KindUnit,
			Number:      number,
			Name:        name,
			UnitType:    unitType,
		},
		status: StatusRecord{Number: number, Status: status},
	}
	s.mu.Unlock()
}

// AddLogEntry appends a record to the simulated event log. Entries are
// served newest first in the order added, so add the newest entry
// first.
func (s *Simulator) AddLogEntry(e EventLogData) {
	s.mu.Lock()
	e.MessageType = MsgEventLogData
	if e.EventNumber == 0 {
		e.EventNumber = len(s.log) + 1
	}
	s.log = append(s.log, e)
	s.mu.Unlock()
}

// AddSecurityCode registers a valid user code.
func (s *Simulator) AddSecurityCode(code string, codeNumber, authority int) {
	s.mu.Lock()
	s.codes[code] = SecurityCodeValidation{CodeNumber: codeNumber, AuthorityLevel: authority}
	s.mu.Unlock()
}

// ─── Scripting ───

// FailNextConnect makes the next Connect call fail with err.
func (s *Simulator) FailNextConnect(err error) {
	s.mu.Lock()
	s.connectErr = err
	s.mu.Unlock()
}

// DropConnection simulates connection loss: the simulator goes
// offline and disconnect listeners fire with cause.
func (s *Simulator) DropConnection(cause error) {
	s.mu.Lock()
	s.connected = false
	listeners := append([]DisconnectListener(nil), s.disconnectListeners...)
	s.mu.Unlock()

	if cause == nil {
		cause = errors.New("connection dropped")
	}
	for _, fn := range listeners {
		fn(cause)
	}
}

// DropConnectionSilently takes the simulator offline without firing
// disconnect listeners, like a pulled cable the transport has not
// noticed yet. Only Connected reveals the loss.
func (s *Simulator) DropConnectionSilently() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

// PushStatus updates an object's packed status and notifies listeners
// if notifications are enabled.
func (s *Simulator) PushStatus(kind ObjectKind, rec StatusRecord) {
	s.mu.Lock()
	if obj, ok := s.objects[kind][rec.Number]; ok {
		obj.status = rec
	}
	s.mu.Unlock()
	s.notify(Notification{Status: &ObjectStatus{Kind: kind, Records: []StatusRecord{rec}}})
}

// PushOtherEvent delivers raw system event words to listeners.
func (s *Simulator) PushOtherEvent(codes ...int) {
	s.notify(Notification{Other: &OtherEventNotifications{Notifications: codes}})
}

func (s *Simulator) notify(n Notification) {
	s.mu.Lock()
	enabled := s.notificationsEnabled && s.connected
	listeners := append([]NotificationListener(nil), s.notifyListeners...)
	s.mu.Unlock()

	if !enabled {
		return
	}
	for _, fn := range listeners {
		fn(n)
	}
}

// Commands returns every controller command executed, in order, as
// (command, p1, p2) triples.
func (s *Simulator) Commands() [][3]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][3]int(nil), s.commands...)
}

// ─── Connector ───

// Connect brings the simulated connection up.
func (s *Simulator) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectErr != nil {
		err := s.connectErr
		s.connectErr = nil
		return err
	}
	s.connected = true
	return nil
}

// Close brings the simulated connection down without firing disconnect
// listeners. Listeners are cleared so a redial through the same
// simulator behaves like a fresh connection.
func (s *Simulator) Close() error {
	s.mu.Lock()
	s.connected = false
	s.notificationsEnabled = false
	s.notifyListeners = nil
	s.disconnectListeners = nil
	s.mu.Unlock()
	return nil
}

// Connected reports whether the simulated connection is up.
func (s *Simulator) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// SetDebug records the debug flag. The simulator produces no wire
// logging.
func (s *Simulator) SetDebug(enabled bool) {
	s.mu.Lock()
	s.debug = enabled
	s.mu.Unlock()
}

// AddNotificationListener registers a notification listener.
func (s *Simulator) AddNotificationListener(fn NotificationListener) {
	s.mu.Lock()
	s.notifyListeners = append(s.notifyListeners, fn)
	s.mu.Unlock()
}

// AddDisconnectListener registers a disconnect listener.
func (s *Simulator) AddDisconnectListener(fn DisconnectListener) {
	s.mu.Lock()
	s.disconnectListeners = append(s.disconnectListeners, fn)
	s.mu.Unlock()
}

// EnableNotifications turns on status push.
func (s *Simulator) EnableNotifications() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return errors.New("simulator: not connected")
	}
	s.notificationsEnabled = true
	return nil
}

func (s *Simulator) checkConnected() error {
	if !s.connected {
		return errors.New("simulator: not connected")
	}
	return nil
}

// ReqSystemInformation returns the simulated panel identity.
func (s *Simulator) ReqSystemInformation() (SystemInformation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return SystemInformation{}, err
	}
	return s.info, nil
}

// ReqSystemStatus returns the simulated system status.
func (s *Simulator) ReqSystemStatus() (SystemStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return SystemStatus{}, err
	}
	return s.status, nil
}

// ReqSystemTroubles returns the active trouble codes.
func (s *Simulator) ReqSystemTroubles() (SystemTroubles, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return SystemTroubles{}, err
	}
	return SystemTroubles{Troubles: append([]int(nil), s.troubles...)}, nil
}

// ReqSystemFormats returns the display format settings.
func (s *Simulator) ReqSystemFormats() (SystemFormats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return SystemFormats{}, err
	}
	return s.formats, nil
}

// ReqSystemFeatures returns the licensed feature list.
func (s *Simulator) ReqSystemFeatures() (SystemFeatures, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return SystemFeatures{}, err
	}
	return SystemFeatures{Features: append([]string(nil), s.features...)}, nil
}

// ReqObjectTypeCapacities returns the configured capacity for a kind.
func (s *Simulator) ReqObjectTypeCapacities(kind ObjectKind) (ObjectTypeCapacities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return ObjectTypeCapacities{}, err
	}
	return ObjectTypeCapacities{Kind: kind, Capacity: s.capacities[kind]}, nil
}

// ReqObjectProperties returns the next defined object after the given
// number, honoring the name filter. The reply degrades to MsgEndOfData
// when no further object matches.
func (s *Simulator) ReqObjectProperties(kind ObjectKind, after int, nameFilter, areaFilter, loadFilter int) (ObjectProperties, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return ObjectProperties{}, err
	}

	var numbers []int
	for n := range s.objects[kind] {
		if n > after {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		obj := s.objects[kind][n]
		if nameFilter == FilterNameNamed && obj.props.Name == "" {
			continue
		}
		if nameFilter == FilterNameUnnamed && obj.props.Name != "" {
			continue
		}
		return obj.props, nil
	}
	return ObjectProperties{MessageType: MsgEndOfData, Kind: kind}, nil
}

// ReqObjectStatus returns the packed status of the defined objects in
// the requested range.
func (s *Simulator) ReqObjectStatus(kind ObjectKind, first, last int) (ObjectStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return ObjectStatus{}, err
	}

	reply := ObjectStatus{Kind: kind}
	for n := first; n <= last; n++ {
		if obj, ok := s.objects[kind][n]; ok {
			reply.Records = append(reply.Records, obj.status)
		}
	}
	return reply, nil
}

// ControllerCommand records the command and applies its effect to the
// object table. Unit and security commands change state and push
// notifications like a live panel.
func (s *Simulator) ControllerCommand(command, p1, p2 int) error {
	s.mu.Lock()
	if err := s.checkConnected(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.commands = append(s.commands, [3]int{command, p1, p2})

	var push *ObjectStatus
	switch {
	case command == cmdUnitOff:
		push = s.setUnitStatusLocked(p2, 0)
	case command == cmdUnitOn:
		push = s.setUnitStatusLocked(p2, 1)
	case command == cmdUnitPercent:
		push = s.setUnitStatusLocked(p2, 100+p1)
	case command >= cmdSecurityBase && command <= cmdSecurityBase+6:
		push = s.setAreaModeLocked(p2, command-cmdSecurityBase)
	case command == cmdConsoleBeeper, command == cmdConsoleBeep:
		// Recorded only; consoles are not modeled.
	default:
		s.mu.Unlock()
		return fmt.Errorf("simulator: command %d not understood", command)
	}
	s.mu.Unlock()

	if push != nil {
		s.notify(Notification{Status: push})
	}
	return nil
}

func (s *Simulator) setUnitStatusLocked(number, status int) *ObjectStatus {
	obj, ok := s.objects[KindUnit][number]
	if !ok {
		return nil
	}
	obj.status.Status = status
	rec := obj.status
	return &ObjectStatus{Kind: KindUnit, Records: []StatusRecord{rec}}
}

func (s *Simulator) setAreaModeLocked(number, mode int) *ObjectStatus {
	if number == 0 {
		// Area 0 addresses all areas; apply to each defined area.
		var records []StatusRecord
		for _, obj := range s.objects[KindArea] {
			obj.status.Mode = mode
			records = append(records, obj.status)
		}
		if len(records) == 0 {
			return nil
		}
		return &ObjectStatus{Kind: KindArea, Records: records}
	}

	obj, ok := s.objects[KindArea][number]
	if !ok {
		return nil
	}
	obj.status.Mode = mode
	rec := obj.status
	return &ObjectStatus{Kind: KindArea, Records: []StatusRecord{rec}}
}

// UploadEventLogData serves the simulated event log newest first.
func (s *Simulator) UploadEventLogData(eventNumber, direction int) (EventLogData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return EventLogData{}, err
	}

	if eventNumber == 0 {
		if len(s.log) == 0 {
			return EventLogData{MessageType: MsgEndOfData}, nil
		}
		return s.log[0], nil
	}
	for i, e := range s.log {
		if e.EventNumber == eventNumber && i+1 < len(s.log) {
			return s.log[i+1], nil
		}
	}
	return EventLogData{MessageType: MsgEndOfData}, nil
}

// ReqSecurityCodeValidation checks the digits against the registered
// codes. Unknown codes validate with authority 0.
func (s *Simulator) ReqSecurityCodeValidation(area, d1, d2, d3, d4 int) (SecurityCodeValidation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConnected(); err != nil {
		return SecurityCodeValidation{}, err
	}

	code := fmt.Sprintf("%d%d%d%d", d1, d2, d3, d4)
	if result, ok := s.codes[code]; ok {
		return result, nil
	}
	return SecurityCodeValidation{CodeNumber: 0, AuthorityLevel: 0}, nil
}

// SimulatorDialer returns a Dialer that hands out sim for every
// address.
func SimulatorDialer(sim *Simulator) Dialer {
	return func(ConnectorConfig) (Connector, error) {
		return sim, nil
	}
}
