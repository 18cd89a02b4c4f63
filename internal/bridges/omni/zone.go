package omni

import (
	"fmt"
	"sort"
	"sync"
)

// ZoneProperties describes one sensor zone as enumerated from the
// controller. The option flags are unpacked from the options byte.
type ZoneProperties struct {
	Number          int
	Name            string
	TypeCode        int
	TypeName        string
	Area            int
	CrossZoning     bool
	SwingerShutdown bool
	DialOutDelay    bool
}

// ZoneInfo caches zone properties and status for one session.
type ZoneInfo struct {
	sess *Session

	mu    sync.Mutex
	props map[int]ZoneProperties
	state map[int]ZoneState
}

func newZoneInfo(s *Session) *ZoneInfo {
	return &ZoneInfo{
		sess:  s,
		props: make(map[int]ZoneProperties),
		state: make(map[int]ZoneState),
	}
}

// refresh re-enumerates zones. Called with the session request lock
// held. Only named zones are fetched, from any area and any load.
func (z *ZoneInfo) refresh(conn Connector) error {
	props := make(map[int]ZoneProperties)
	after := 0
	for {
		reply, err := conn.ReqObjectProperties(KindZone, after,
			FilterNameNamed, FilterAreaAny, FilterLoadAny)
		if err != nil {
			return fmt.Errorf("enumerating zones: %w", err)
		}
		if reply.MessageType != MsgObjectProperties {
			break
		}
		after = reply.Number
		props[reply.Number] = ZoneProperties{
			Number:          reply.Number,
			Name:            reply.Name,
			TypeCode:        reply.ZoneType,
			TypeName:        ZoneTypeName(reply.ZoneType),
			Area:            reply.Area,
			CrossZoning:     reply.Options&0b001 != 0,
			SwingerShutdown: reply.Options&0b010 != 0,
			DialOutDelay:    reply.Options&0b100 != 0,
		}
	}

	z.mu.Lock()
	z.props = props
	z.state = make(map[int]ZoneState)
	z.mu.Unlock()
	return nil
}

// Properties returns a copy of the cached zone properties.
func (z *ZoneInfo) Properties() map[int]ZoneProperties {
	z.mu.Lock()
	defer z.mu.Unlock()
	out := make(map[int]ZoneProperties, len(z.props))
	for k, v := range z.props {
		out[k] = v
	}
	return out
}

// Numbers returns the cached zone numbers in ascending order.
func (z *ZoneInfo) Numbers() []int {
	z.mu.Lock()
	defer z.mu.Unlock()
	nums := make([]int, 0, len(z.props))
	for n := range z.props {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// State returns the last known status of a zone, if any.
func (z *ZoneInfo) State(number int) (ZoneState, bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	st, ok := z.state[number]
	return st, ok
}

// FetchStatus requests the current status of one zone from the
// controller and updates the cache. The reply is folded in and
// dispatched exactly like a pushed notification, so subscribers see
// refresh results too. Numbers outside the enumerated set return
// ErrObjectNotDefined.
func (z *ZoneInfo) FetchStatus(number int) (ZoneState, error) {
	z.mu.Lock()
	_, known := z.props[number]
	z.mu.Unlock()
	if !known {
		return ZoneState{}, fmt.Errorf("%w: zone %d", ErrObjectNotDefined, number)
	}

	var rec StatusRecord
	err := z.sess.request(func(conn Connector) error {
		reply, err := conn.ReqObjectStatus(KindZone, number, number)
		if err != nil {
			return err
		}
		if len(reply.Records) == 0 {
			return fmt.Errorf("empty status reply for zone %d", number)
		}
		rec = reply.Records[0]
		return nil
	})
	if err != nil {
		return ZoneState{}, err
	}

	for _, ev := range z.applyStatus(rec) {
		z.sess.dispatcher.Publish(ev)
	}

	z.mu.Lock()
	st := z.state[number]
	z.mu.Unlock()
	return st, nil
}

// applyStatus folds a status notification record into the cache and
// returns the events to dispatch. Unknown zone numbers are dropped.
func (z *ZoneInfo) applyStatus(rec StatusRecord) []Event {
	z.mu.Lock()
	defer z.mu.Unlock()

	if _, known := z.props[rec.Number]; !known {
		z.sess.logDebug("dropping status for unknown zone", "number", rec.Number)
		return nil
	}

	st := DecodeZoneStatus(rec.Status, rec.Loop)
	z.state[rec.Number] = st

	return []Event{{
		Type:    EventStatus,
		Address: z.sess.Address(),
		Kind:    KindZone,
		Number:  rec.Number,
		Zone:    &st,
	}}
}
