package omni

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// UnitProperties describes one control unit as enumerated from the
// controller.
type UnitProperties struct {
	Number   int
	Name     string
	TypeCode int
	TypeName string

	// Dimmable is false for relay style units (flags, voltage outputs,
	// audio zones and sources), which only report on or off.
	Dimmable bool
}

// UnitInfo caches unit properties and status for one session.
type UnitInfo struct {
	sess *Session

	mu    sync.Mutex
	props map[int]UnitProperties
	state map[int]UnitState
}

func newUnitInfo(s *Session) *UnitInfo {
	return &UnitInfo{
		sess:  s,
		props: make(map[int]UnitProperties),
		state: make(map[int]UnitState),
	}
}

// refresh re-enumerates units. Called with the session request lock
// held. Only named units are fetched, from any area and any load.
func (u *UnitInfo) refresh(conn Connector) error {
	props := make(map[int]UnitProperties)
	after := 0
	for {
		reply, err := conn.ReqObjectProperties(KindUnit, after,
			FilterNameNamed, FilterAreaAny, FilterLoadAny)
		if err != nil {
			return fmt.Errorf("enumerating units: %w", err)
		}
		if reply.MessageType != MsgObjectProperties {
			break
		}
		after = reply.Number
		props[reply.Number] = UnitProperties{
			Number:   reply.Number,
			Name:     reply.Name,
			TypeCode: reply.UnitType,
			TypeName: UnitTypeName(reply.UnitType),
			Dimmable: UnitTypeDimmable(reply.UnitType),
		}
	}

	u.mu.Lock()
	u.props = props
	u.state = make(map[int]UnitState)
	u.mu.Unlock()
	return nil
}

// Properties returns a copy of the cached unit properties.
func (u *UnitInfo) Properties() map[int]UnitProperties {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[int]UnitProperties, len(u.props))
	for k, v := range u.props {
		out[k] = v
	}
	return out
}

// Numbers returns the cached unit numbers in ascending order.
func (u *UnitInfo) Numbers() []int {
	u.mu.Lock()
	defer u.mu.Unlock()
	nums := make([]int, 0, len(u.props))
	for n := range u.props {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// State returns the last known status of a unit, if any.
func (u *UnitInfo) State(number int) (UnitState, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	st, ok := u.state[number]
	return st, ok
}

// FetchStatus requests the current status of one unit from the
// controller and updates the cache. The reply is folded in and
// dispatched exactly like a pushed notification, so subscribers see
// refresh results too. Numbers outside the enumerated set return
// ErrObjectNotDefined.
func (u *UnitInfo) FetchStatus(number int) (UnitState, error) {
	u.mu.Lock()
	_, known := u.props[number]
	u.mu.Unlock()
	if !known {
		return UnitState{}, fmt.Errorf("%w: unit %d", ErrObjectNotDefined, number)
	}

	var rec StatusRecord
	err := u.sess.request(func(conn Connector) error {
		reply, err := conn.ReqObjectStatus(KindUnit, number, number)
		if err != nil {
			return err
		}
		if len(reply.Records) == 0 {
			return fmt.Errorf("empty status reply for unit %d", number)
		}
		rec = reply.Records[0]
		return nil
	})
	if err != nil {
		return UnitState{}, err
	}

	for _, ev := range u.applyStatus(rec) {
		u.sess.dispatcher.Publish(ev)
	}

	u.mu.Lock()
	st := u.state[rec.Number]
	u.mu.Unlock()
	return st, nil
}

// applyStatus folds a status notification record into the cache and
// returns the events to dispatch. Unknown unit numbers are dropped.
func (u *UnitInfo) applyStatus(rec StatusRecord) []Event {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, known := u.props[rec.Number]; !known {
		u.sess.logDebug("dropping status for unknown unit", "number", rec.Number)
		return nil
	}

	st := DecodeUnitStatus(rec.Status, rec.Time)
	u.state[rec.Number] = st

	return []Event{{
		Type:    EventStatus,
		Address: u.sess.Address(),
		Kind:    KindUnit,
		Number:  rec.Number,
		Unit:    &st,
	}}
}

// SendCommand controls a unit. Supported commands are "on", "off" and
// "level" (parameter 0-100). Level 0 sends off, matching what the
// dimmed-to-nothing state decodes back to. Level commands to a non
// dimmable unit fall back to on or off.
func (u *UnitInfo) SendCommand(command string, number, parameter int) error {
	u.mu.Lock()
	props, known := u.props[number]
	u.mu.Unlock()
	if !known {
		return fmt.Errorf("%w: unit %d", ErrObjectNotDefined, number)
	}

	var code, p1 int
	switch strings.ToLower(command) {
	case "on":
		code = cmdUnitOn
	case "off":
		code = cmdUnitOff
	case "level", "percent", "dim":
		level := parameter
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		if !props.Dimmable {
			code = cmdUnitOff
			if level > 0 {
				code = cmdUnitOn
			}
			break
		}
		if level == 0 {
			code = cmdUnitOff
			break
		}
		code = cmdUnitPercent
		p1 = level
	default:
		return fmt.Errorf("%w: unit command %q", ErrUnknownCommand, command)
	}

	return u.sess.request(func(conn Connector) error {
		return conn.ControllerCommand(code, p1, number)
	})
}
