package omni

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AreaProperties describes one security area as enumerated from the
// controller. Disabled areas are not kept.
type AreaProperties struct {
	Number     int
	Name       string
	EntryDelay int
	ExitDelay  int
}

// AreaState is the decoded status of an area.
type AreaState struct {
	Mode       string
	Alarms     []string
	EntryTimer int
	ExitTimer  int
}

// AreaInfo caches area properties and status for one session.
type AreaInfo struct {
	sess *Session

	mu    sync.Mutex
	props map[int]AreaProperties
	state map[int]AreaState
}

func newAreaInfo(s *Session) *AreaInfo {
	return &AreaInfo{
		sess:  s,
		props: make(map[int]AreaProperties),
		state: make(map[int]AreaState),
	}
}

// refresh re-enumerates areas. Called with the session request lock
// held. Areas may be unnamed, so the name filter is wide open and a
// fallback name is synthesized; disabled areas are dropped. Each
// enumerated area's current status is captured without dispatching,
// so the alarm baseline survives a reconnect and alarms active across
// it do not re-fire alarm subscribers.
func (a *AreaInfo) refresh(conn Connector) error {
	props := make(map[int]AreaProperties)
	after := 0
	for {
		reply, err := conn.ReqObjectProperties(KindArea, after,
			FilterNameAny, FilterAreaNone, FilterLoadNone)
		if err != nil {
			return fmt.Errorf("enumerating areas: %w", err)
		}
		if reply.MessageType != MsgObjectProperties {
			break
		}
		after = reply.Number
		if !reply.Enabled {
			continue
		}
		name := reply.Name
		if name == "" {
			name = fmt.Sprintf("Area %d", reply.Number)
		}
		props[reply.Number] = AreaProperties{
			Number:     reply.Number,
			Name:       name,
			EntryDelay: reply.EntryDelay,
			ExitDelay:  reply.ExitDelay,
		}
	}

	state := make(map[int]AreaState, len(props))
	for number := range props {
		reply, err := conn.ReqObjectStatus(KindArea, number, number)
		if err != nil {
			return fmt.Errorf("capturing area %d status: %w", number, err)
		}
		if len(reply.Records) > 0 {
			state[number] = a.decode(reply.Records[0])
		}
	}

	a.mu.Lock()
	a.props = props
	a.state = state
	a.mu.Unlock()
	return nil
}

// Properties returns a copy of the cached area properties.
func (a *AreaInfo) Properties() map[int]AreaProperties {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[int]AreaProperties, len(a.props))
	for k, v := range a.props {
		out[k] = v
	}
	return out
}

// Numbers returns the cached area numbers in ascending order.
func (a *AreaInfo) Numbers() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	nums := make([]int, 0, len(a.props))
	for n := range a.props {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// State returns the last known status of an area, if any.
func (a *AreaInfo) State(number int) (AreaState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.state[number]
	return st, ok
}

// FetchStatus requests the current status of one area from the
// controller and updates the cache. The reply is folded in and
// dispatched exactly like a pushed notification, so subscribers see
// refresh results too. Numbers outside the enumerated set return
// ErrObjectNotDefined.
func (a *AreaInfo) FetchStatus(number int) (AreaState, error) {
	a.mu.Lock()
	_, known := a.props[number]
	a.mu.Unlock()
	if !known {
		return AreaState{}, fmt.Errorf("%w: area %d", ErrObjectNotDefined, number)
	}

	var rec StatusRecord
	err := a.sess.request(func(conn Connector) error {
		reply, err := conn.ReqObjectStatus(KindArea, number, number)
		if err != nil {
			return err
		}
		if len(reply.Records) == 0 {
			return fmt.Errorf("empty status reply for area %d", number)
		}
		rec = reply.Records[0]
		return nil
	})
	if err != nil {
		return AreaState{}, err
	}

	for _, ev := range a.applyStatus(rec) {
		a.sess.dispatcher.Publish(ev)
	}

	a.mu.Lock()
	st := a.state[number]
	a.mu.Unlock()
	return st, nil
}

func (a *AreaInfo) decode(rec StatusRecord) AreaState {
	f := a.sess.Flavor()
	return AreaState{
		Mode:       AreaModeName(f, rec.Mode),
		Alarms:     DecodeAlarms(f, rec.Alarms),
		EntryTimer: rec.EntryTimer,
		ExitTimer:  rec.ExitTimer,
	}
}

// applyStatus folds a status notification record into the cache and
// returns the events to dispatch. Newly raised alarms are computed
// against the union of every area's alarm set, so an alarm already
// active in another area produces no second EventAlarm. Unknown area
// numbers are dropped.
func (a *AreaInfo) applyStatus(rec StatusRecord) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, known := a.props[rec.Number]; !known {
		a.sess.logDebug("dropping status for unknown area", "number", rec.Number)
		return nil
	}

	prevUnion := a.alarmUnion()
	st := a.decode(rec)
	a.state[rec.Number] = st

	events := []Event{{
		Type:    EventStatus,
		Address: a.sess.Address(),
		Kind:    KindArea,
		Number:  rec.Number,
		Area:    &st,
	}}

	if raised := newAlarms(prevUnion, a.alarmUnion()); len(raised) > 0 {
		events = append(events, Event{
			Type:    EventAlarm,
			Address: a.sess.Address(),
			Kind:    KindArea,
			Number:  rec.Number,
			Alarms:  raised,
		})
	}
	return events
}

// alarmUnion collects the distinct alarm names active across every
// area. Caller holds mu.
func (a *AreaInfo) alarmUnion() []string {
	var union []string
	for _, st := range a.state {
		union = append(union, newAlarms(union, st.Alarms)...)
	}
	return union
}

// newAlarms returns the entries of cur that are absent from prev.
func newAlarms(prev, cur []string) []string {
	var raised []string
	for _, alarm := range cur {
		found := false
		for _, p := range prev {
			if p == alarm {
				found = true
				break
			}
		}
		if !found {
			raised = append(raised, alarm)
		}
	}
	return raised
}

// SendCommand arms or disarms an area. The mode name must be "disarm"
// or one of the flavor's mode names (case insensitive); userNumber is
// the code slot authorizing the change, and area 0 addresses all areas.
func (a *AreaInfo) SendCommand(mode string, userNumber, area int) error {
	code, err := a.commandCode(mode)
	if err != nil {
		return err
	}
	return a.sess.request(func(conn Connector) error {
		return conn.ControllerCommand(code, userNumber, area)
	})
}

func (a *AreaInfo) commandCode(mode string) (int, error) {
	if strings.EqualFold(mode, "disarm") || strings.EqualFold(mode, "off") {
		return cmdSecurityBase, nil
	}
	for n, name := range modeNames[a.sess.Flavor()] {
		if n != 0 && strings.EqualFold(mode, name) {
			return cmdSecurityBase + n, nil
		}
	}
	return 0, fmt.Errorf("%w: area mode %q", ErrUnknownCommand, mode)
}
