package omni

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// backoffFactor grows the reconnect delay after each failed attempt.
const backoffFactor = 1.5

// errLostTransport is the disconnect cause when the transport stops
// reporting connected without ever firing its disconnect listener.
var errLostTransport = errors.New("transport no longer connected")

// State is the lifecycle state of a session.
type State int32

const (
	// StateIdle means the session exists but has never connected.
	StateIdle State = iota

	// StateConnecting means a connect attempt is in progress.
	StateConnecting

	// StateConnected means the handshake completed and the object
	// caches are populated.
	StateConnected

	// StateWaitingReconnect means the connection was lost and a retry
	// is scheduled.
	StateWaitingReconnect

	// StateFailed means the configuration is unusable. Terminal; the
	// session is never retried.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateWaitingReconnect:
		return "waiting reconnect"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Logger is the optional structured logger accepted by SetLogger.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Stats is a snapshot of a session's counters.
type Stats struct {
	State                State
	Requests             uint64
	Notifications        uint64
	DroppedNotifications uint64
	Disconnects          uint64
	Reconnects           uint64
	ConnectedSince       time.Time
}

// Session owns the connection to one controller and the caches built
// from it. All controller requests are serialized through the session;
// notifications are queued by transport listeners and drained by
// Update, which a single worker calls periodically.
type Session struct {
	cfg  Config
	dial Dialer

	// reqMu serializes controller requests and guards conn.
	reqMu sync.Mutex
	conn  Connector

	state atomic.Int32
	debug atomic.Bool

	notifications chan Notification
	disconnects   chan error

	dispatcher *Dispatcher
	areas      *AreaInfo
	zones      *ZoneInfo
	units      *UnitInfo
	controller *ControllerInfo

	// Reconnect scheduling. Only touched by Connect and Update, which
	// never run concurrently (single update worker).
	backoff   time.Duration
	nextRetry time.Time

	everConnected atomic.Bool

	requestCount    atomic.Uint64
	notifyCount     atomic.Uint64
	droppedCount    atomic.Uint64
	disconnectCount atomic.Uint64
	reconnectCount  atomic.Uint64

	connectedMu    sync.Mutex
	connectedSince time.Time

	loggerMu sync.Mutex
	logger   Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSession creates a session for one controller. The configuration
// is validated up front; a validation error wraps ErrNotConfigured and
// the returned session is in StateFailed, which is terminal.
func NewSession(cfg Config, dial Dialer) (*Session, error) {
	cfg.applyDefaults()

	s := &Session{
		cfg:           cfg,
		dial:          dial,
		notifications: make(chan Notification, cfg.QueueSize),
		disconnects:   make(chan error, 8),
		dispatcher:    NewDispatcher(cfg.QueueSize),
		backoff:       cfg.RetryInterval,
		closed:        make(chan struct{}),
	}
	s.debug.Store(cfg.DebugTransport)
	s.areas = newAreaInfo(s)
	s.zones = newZoneInfo(s)
	s.units = newUnitInfo(s)
	s.controller = newControllerInfo(s)

	if err := cfg.Validate(); err != nil {
		s.setState(StateFailed)
		return s, err
	}
	if dial == nil {
		s.setState(StateFailed)
		return s, fmt.Errorf("%w: nil dialer", ErrNotConfigured)
	}
	return s, nil
}

// Address returns the host:port this session talks to.
func (s *Session) Address() string {
	return s.cfg.Address()
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Flavor returns the controller flavor. Valid once connected; before
// the first handshake it reports Omni.
func (s *Session) Flavor() Flavor {
	return s.controller.Flavor()
}

// Areas returns the session's area cache.
func (s *Session) Areas() *AreaInfo { return s.areas }

// Zones returns the session's zone cache.
func (s *Session) Zones() *ZoneInfo { return s.zones }

// Units returns the session's unit cache.
func (s *Session) Units() *UnitInfo { return s.units }

// Controller returns the session's panel level cache.
func (s *Session) Controller() *ControllerInfo { return s.controller }

// Subscribe registers a subscriber for this session's events and
// returns its id.
func (s *Session) Subscribe(fn Subscriber) string {
	return s.dispatcher.Subscribe(fn)
}

// Unsubscribe removes a subscriber.
func (s *Session) Unsubscribe(id string) {
	s.dispatcher.Unsubscribe(id)
}

// SetLogger installs a logger for session lifecycle messages.
func (s *Session) SetLogger(l Logger) {
	s.loggerMu.Lock()
	s.logger = l
	s.loggerMu.Unlock()
}

func (s *Session) logDebug(msg string, args ...any) {
	s.loggerMu.Lock()
	l := s.logger
	s.loggerMu.Unlock()
	if l == nil {
		return
	}
	args = append([]any{"controller", s.Address()}, args...)
	if s.cfg.Debug {
		l.Info(msg, args...)
		return
	}
	l.Debug(msg, args...)
}

func (s *Session) logInfo(msg string, args ...any) {
	s.loggerMu.Lock()
	l := s.logger
	s.loggerMu.Unlock()
	if l != nil {
		l.Info(msg, append([]any{"controller", s.Address()}, args...)...)
	}
}

func (s *Session) logError(msg string, args ...any) {
	s.loggerMu.Lock()
	l := s.logger
	s.loggerMu.Unlock()
	if l != nil {
		l.Error(msg, append([]any{"controller", s.Address()}, args...)...)
	}
}

// SetDebug toggles verbose wire logging on the live connection and on
// any connection established later.
func (s *Session) SetDebug(enabled bool) {
	s.debug.Store(enabled)
	s.reqMu.Lock()
	if s.conn != nil {
		s.conn.SetDebug(enabled)
	}
	s.reqMu.Unlock()
}

// Connect establishes the connection and performs the handshake:
// enable notifications, fetch panel information and capacities, then
// enumerate areas, zones and units. Transport failures leave the
// session waiting to reconnect; key composition failures are terminal.
func (s *Session) Connect() error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	if s.State() == StateFailed {
		return fmt.Errorf("%w: session is failed", ErrNotConfigured)
	}

	s.setState(StateConnecting)

	key, err := s.cfg.Key()
	if err != nil {
		s.setState(StateFailed)
		s.logError("unusable encryption key", "error", err)
		return err
	}

	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	if err := s.openLocked(key); err != nil {
		s.setState(StateWaitingReconnect)
		s.scheduleRetry()
		return err
	}

	s.setState(StateConnected)
	s.backoff = s.cfg.RetryInterval
	s.everConnected.Store(true)
	s.connectedMu.Lock()
	s.connectedSince = time.Now()
	s.connectedMu.Unlock()
	s.logInfo("connected",
		"model", s.controller.Model(),
		"firmware", s.controller.Firmware(),
		"areas", len(s.areas.Properties()),
		"zones", len(s.zones.Properties()),
		"units", len(s.units.Properties()))
	return nil
}

// openLocked dials, handshakes and populates the caches. Caller holds
// reqMu.
func (s *Session) openLocked(key [16]byte) error {
	conn, err := s.dial(ConnectorConfig{
		Host:    s.cfg.Host,
		Port:    s.cfg.Port,
		Key:     key,
		Timeout: s.cfg.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %s", ErrConnection, s.Address(), err)
	}

	// Listeners only enqueue. Decoding and dispatch happen on the
	// update worker so the transport's receive path never blocks.
	conn.AddNotificationListener(s.onNotification)
	conn.AddDisconnectListener(s.onDisconnect)
	conn.SetDebug(s.debug.Load())

	if err := conn.Connect(); err != nil {
		conn.Close()
		return fmt.Errorf("%w: connecting to %s: %s", ErrConnection, s.Address(), err)
	}

	if err := s.syncLocked(conn); err != nil {
		conn.Close()
		return fmt.Errorf("%w: handshake with %s: %s", ErrConnection, s.Address(), err)
	}

	s.conn = conn
	return nil
}

// syncLocked runs the post connect synchronization on conn: subscribe
// to notifications, refresh panel information and re-enumerate all
// object caches. Caller holds reqMu.
func (s *Session) syncLocked(conn Connector) error {
	if err := conn.EnableNotifications(); err != nil {
		return fmt.Errorf("enabling notifications: %w", err)
	}
	if err := s.controller.refresh(conn); err != nil {
		return err
	}
	if err := s.controller.refreshStatus(conn); err != nil {
		return err
	}
	if err := s.areas.refresh(conn); err != nil {
		return err
	}
	if err := s.zones.refresh(conn); err != nil {
		return err
	}
	return s.units.refresh(conn)
}

func (s *Session) onNotification(n Notification) {
	select {
	case s.notifications <- n:
	default:
		s.droppedCount.Add(1)
	}
}

func (s *Session) onDisconnect(err error) {
	select {
	case s.disconnects <- err:
	default:
		// A disconnect is already pending; one is enough to trigger
		// the reconnect path.
	}
}

// Update advances the session: queued notifications are decoded and
// dispatched, connection loss is turned into a disconnect event, and
// reconnection is attempted when due. It must be called from a single
// goroutine, typically the daemon's update loop.
func (s *Session) Update() {
	select {
	case <-s.closed:
		return
	default:
	}

	s.drainNotifications()
	s.drainDisconnects()

	switch s.State() {
	case StateIdle:
		_ = s.Connect() // failure is reflected in the session state
	case StateConnected:
		s.pollConnection()
	case StateWaitingReconnect:
		if time.Now().After(s.nextRetry) {
			s.reconnect()
		}
	}
}

// pollConnection verifies the live transport still reports connected.
// A silent drop, one the transport never surfaced through a disconnect
// listener, is handled exactly like a received disconnect.
func (s *Session) pollConnection() {
	s.reqMu.Lock()
	alive := s.conn != nil && s.conn.Connected()
	s.reqMu.Unlock()
	if !alive {
		s.handleDisconnect(errLostTransport)
	}
}

func (s *Session) drainNotifications() {
	for {
		select {
		case n := <-s.notifications:
			s.notifyCount.Add(1)
			s.dispatch(n)
		default:
			return
		}
	}
}

func (s *Session) dispatch(n Notification) {
	var events []Event
	switch {
	case n.Status != nil:
		for _, rec := range n.Status.Records {
			switch n.Status.Kind {
			case KindArea:
				events = append(events, s.areas.applyStatus(rec)...)
			case KindZone:
				events = append(events, s.zones.applyStatus(rec)...)
			case KindUnit:
				events = append(events, s.units.applyStatus(rec)...)
			default:
				s.logDebug("dropping status for unhandled kind", "kind", n.Status.Kind.String())
			}
		}
	case n.Other != nil:
		events = s.controller.applyOther(n.Other.Notifications)
	}

	for _, ev := range events {
		s.dispatcher.Publish(ev)
	}
}

func (s *Session) drainDisconnects() {
	lost := false
	var cause error
	for {
		select {
		case err := <-s.disconnects:
			lost = true
			cause = err
		default:
			if lost {
				s.handleDisconnect(cause)
			}
			return
		}
	}
}

func (s *Session) handleDisconnect(cause error) {
	if s.State() != StateConnected {
		return
	}

	s.reqMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.reqMu.Unlock()

	// Notifications left in the queue predate the loss. They are
	// discarded so no status is delivered between the disconnect and
	// reconnect events.
	for {
		select {
		case <-s.notifications:
			s.droppedCount.Add(1)
			continue
		default:
		}
		break
	}

	s.disconnectCount.Add(1)
	s.setState(StateWaitingReconnect)
	s.scheduleRetry()
	s.logInfo("connection lost", "error", fmt.Sprintf("%v", cause), "retry_in", s.backoff.String())
	s.dispatcher.Publish(Event{Type: EventDisconnect, Address: s.Address()})
}

func (s *Session) reconnect() {
	key, err := s.cfg.Key()
	if err != nil {
		s.setState(StateFailed)
		return
	}

	s.reqMu.Lock()
	err = s.openLocked(key)
	s.reqMu.Unlock()

	if err != nil {
		s.backoff = time.Duration(float64(s.backoff) * backoffFactor)
		if s.backoff > s.cfg.MaxRetryInterval {
			s.backoff = s.cfg.MaxRetryInterval
		}
		s.scheduleRetry()
		s.logDebug("reconnect failed", "error", err, "retry_in", s.backoff.String())
		return
	}

	wasConnected := s.everConnected.Load()
	s.setState(StateConnected)
	s.backoff = s.cfg.RetryInterval
	s.everConnected.Store(true)
	s.connectedMu.Lock()
	s.connectedSince = time.Now()
	s.connectedMu.Unlock()

	if !wasConnected {
		// First successful connect after failed initial attempts; there
		// was no disconnect, so there is no reconnect to announce.
		s.logInfo("connected")
		return
	}

	s.reconnectCount.Add(1)
	s.logInfo("reconnected")

	// The caches were resynchronized inside openLocked, so subscribers
	// receive the reconnect event against fresh state.
	s.dispatcher.Publish(Event{Type: EventReconnect, Address: s.Address()})
}

func (s *Session) scheduleRetry() {
	s.nextRetry = time.Now().Add(s.backoff)
}

// Connected reports whether the session currently has a live
// connection.
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

// request serializes one controller exchange. Requests against a dead
// connection fail with ErrNotConnected; transport failures are wrapped
// in ErrConnection and, when the connection itself is gone, queue a
// disconnect for the update worker.
func (s *Session) request(fn func(Connector) error) error {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}
	if !s.conn.Connected() {
		// The transport died since the last poll. Queue the disconnect
		// so the update worker runs the reconnect path.
		s.onDisconnect(errLostTransport)
		return ErrNotConnected
	}

	s.requestCount.Add(1)
	if err := fn(s.conn); err != nil {
		if !s.conn.Connected() {
			s.onDisconnect(err)
		}
		return fmt.Errorf("%w: %s", ErrConnection, err)
	}
	return nil
}

// Stats returns a snapshot of the session's counters.
func (s *Session) Stats() Stats {
	s.connectedMu.Lock()
	since := s.connectedSince
	s.connectedMu.Unlock()

	return Stats{
		State:                s.State(),
		Requests:             s.requestCount.Load(),
		Notifications:        s.notifyCount.Load(),
		DroppedNotifications: s.droppedCount.Load() + s.dispatcher.Dropped(),
		Disconnects:          s.disconnectCount.Load(),
		Reconnects:           s.reconnectCount.Load(),
		ConnectedSince:       since,
	}
}

// Close shuts the session down: the connection is closed, the
// dispatcher stops delivering and further use fails with
// ErrSessionClosed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)

		s.reqMu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.reqMu.Unlock()

		s.dispatcher.Close()
		s.setState(StateIdle)
	})
	return nil
}
