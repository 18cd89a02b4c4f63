package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stonefield-labs/omnibridge/internal/bridges/omni"
	"github.com/stonefield-labs/omnibridge/internal/device"
	"github.com/stonefield-labs/omnibridge/internal/infrastructure/mqtt"
)

// Bridge operation constants.
const (
	// commandTopicParts is the number of parts in an object command topic:
	// omnibridge/controller/{address}/{kind}/{number}/command
	commandTopicParts = 6

	// defaultUpdateInterval is how often sessions are advanced when the
	// options leave it unset.
	defaultUpdateInterval = 100 * time.Millisecond

	// telemetryInterval is how often battery readings and session
	// counters are written to the metrics sink.
	telemetryInterval = time.Minute

	// defaultEventLogLimit bounds the scheduled event log sweep.
	defaultEventLogLimit = 20
)

// Logger is the minimal structured logging interface the bridge needs.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

var _ MQTTClient = (*mqtt.Client)(nil)

// ObjectRegistry persists the discovered object catalogue and last
// observed states. This interface is satisfied by *device.Registry.
// It is optional - if nil, the bridge operates without persistence.
type ObjectRegistry interface {
	// SyncController replaces the stored catalogue for one controller
	// and kind with the given discovered objects.
	SyncController(ctx context.Context, controller, kind string, devices []device.Device) error

	// SetDeviceState updates the last observed state of one object.
	SetDeviceState(ctx context.Context, id string, state device.State) error
}

// MetricsSink receives periodic telemetry. This interface is satisfied
// by *influxdb.Client. It is optional - if nil, no telemetry is written.
type MetricsSink interface {
	WriteBatteryReading(controller string, reading int)
	WriteSessionStats(controller string, stats omni.Stats)
}

// subRecord remembers which session a bridge subscription belongs to.
type subRecord struct {
	sess *omni.Session
	id   string
}

// Bridge orchestrates bidirectional translation between controller
// sessions and MQTT. It handles:
//   - Publishing decoded session events as per-object state topics
//   - Executing commands received on the object command topics
//   - Catalogue sync into the object registry after (re)connects
//   - Health reporting, telemetry and the scheduled full refresh
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	sessions *omni.Registry
	mqtt     MQTTClient
	objects  ObjectRegistry // Optional object registry for catalogue/state persistence
	metrics  MetricsSink    // Optional telemetry sink
	health   *HealthReporter
	cron     *cron.Cron

	updateInterval time.Duration
	refreshSpec    string
	eventLogLimit  int

	// Event subscriptions, keyed by session address. The session
	// pointer is tracked because the registry replaces sessions when
	// their connection options change.
	subs   map[string]subRecord
	subsMu sync.Mutex

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Sessions is the controller session registry. Required.
	Sessions *omni.Registry

	// MQTT is the MQTT client implementation. Required.
	MQTT MQTTClient

	// Objects is optional object registry for catalogue and state
	// persistence. If nil, the bridge operates without persistence.
	Objects ObjectRegistry

	// Metrics is optional telemetry sink. If nil, no telemetry is
	// written.
	Metrics MetricsSink

	// Logger is optional structured logger.
	Logger Logger

	// Version is the bridge software version for health messages.
	Version string

	// UpdateInterval is how often sessions are advanced.
	// Default: 100ms.
	UpdateInterval time.Duration

	// FullRefreshSchedule is a cron expression for the scheduled full
	// refresh and event log sweep. Empty disables the schedule.
	FullRefreshSchedule string

	// EventLogLimit bounds the scheduled event log sweep. Default: 20.
	EventLogLimit int

	// HealthInterval is how often health is published. Default: 30s.
	HealthInterval time.Duration
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	updateInterval := opts.UpdateInterval
	if updateInterval <= 0 {
		updateInterval = defaultUpdateInterval
	}
	eventLogLimit := opts.EventLogLimit
	if eventLogLimit <= 0 {
		eventLogLimit = defaultEventLogLimit
	}

	// Create bridge-level context for in-flight work cancellation on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		sessions:       opts.Sessions,
		mqtt:           opts.MQTT,
		objects:        opts.Objects, // May be nil (optional)
		metrics:        opts.Metrics, // May be nil (optional)
		updateInterval: updateInterval,
		refreshSpec:    opts.FullRefreshSchedule,
		eventLogLimit:  eventLogLimit,
		subs:           make(map[string]subRecord),
		done:           make(chan struct{}),
		ctx:            ctx,
		ctxCancel:      ctxCancel,
		logger:         opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTT,
		Sessions:  opts.Sessions,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// AddController registers a controller session with the bridge and
// attempts the first connection. Configuration errors are returned;
// transport errors are left to the update loop's retry schedule.
func (b *Bridge) AddController(cfg omni.Config) (*omni.Session, error) {
	sess, err := b.sessions.GetOrCreate(cfg)
	if err != nil {
		return nil, err
	}

	addr := sess.Address()

	b.subsMu.Lock()
	rec, subscribed := b.subs[addr]
	b.subsMu.Unlock()
	if !subscribed || rec.sess != sess {
		id := sess.Subscribe(b.handleEvent)
		b.subsMu.Lock()
		b.subs[addr] = subRecord{sess: sess, id: id}
		b.subsMu.Unlock()
	}

	if err := sess.Connect(); err != nil {
		if omni.IsConfigurationError(err) {
			return nil, err
		}
		b.logWarn("initial connect failed, will retry", "controller", addr, "error", err)
		return sess, nil
	}

	b.publishControllerStatus(sess, "connected")
	b.syncObjects(b.ctx, sess)
	return sess, nil
}

// Start begins bridge operation: subscribes to command topics, starts
// health reporting, the update loop, telemetry and the full refresh
// schedule.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	commandTopic := mqtt.Topics{}.AllObjectCommands()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	b.health.Start(ctx)

	if b.refreshSpec != "" {
		b.cron = cron.New()
		if _, err := b.cron.AddFunc(b.refreshSpec, b.fullRefresh); err != nil {
			return fmt.Errorf("schedule full refresh: %w", err)
		}
		b.cron.Start()
		b.logInfo("full refresh scheduled", "spec", b.refreshSpec)
	}

	b.wg.Add(2)
	go b.updateLoop(ctx)
	go b.telemetryLoop(ctx)

	if err := b.health.PublishNow(); err != nil {
		b.logError("failed to publish healthy status", err)
	}

	b.logInfo("bridge started", "controllers", len(b.sessions.List()))
	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Cancel bridge context to abort in-flight work
		b.ctxCancel()

		if b.cron != nil {
			<-b.cron.Stop().Done()
		}

		// Stop health reporting (publishes "stopping" status)
		b.health.Stop()

		// Wait for loops to finish
		b.wg.Wait()

		b.sessions.CloseAll()

		b.logInfo("bridge stopped")
	})
}

// updateLoop advances every session on a fixed tick. Sessions drain
// queued notifications, surface disconnects and attempt reconnects from
// this goroutine only.
func (b *Bridge) updateLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.sessions.UpdateAll()
		}
	}
}

// telemetryLoop periodically writes battery readings and session
// counters to the metrics sink.
func (b *Bridge) telemetryLoop(ctx context.Context) {
	defer b.wg.Done()

	if b.metrics == nil {
		return
	}

	ticker := time.NewTicker(telemetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.writeTelemetry()
		}
	}
}

// writeTelemetry records one telemetry sample per session. The battery
// reading is fetched fresh so trends reflect more than the value cached
// at connect time.
func (b *Bridge) writeTelemetry() {
	for _, sess := range b.sessions.List() {
		addr := sess.Address()
		b.metrics.WriteSessionStats(addr, sess.Stats())

		if !sess.Connected() {
			continue
		}
		status, err := sess.Controller().FetchStatus()
		if err != nil {
			b.logDebug("battery fetch failed", "controller", addr, "error", err)
			continue
		}
		b.metrics.WriteBatteryReading(addr, status.BatteryReading)
	}
}

// fullRefresh re-reads every known object's status and resyncs the
// catalogue on all connected sessions, then sweeps the event log.
// Runs on the cron schedule.
func (b *Bridge) fullRefresh() {
	b.logInfo("full refresh started")

	for _, sess := range b.sessions.List() {
		if !sess.Connected() {
			continue
		}
		b.refreshSession(sess)
	}

	b.logInfo("full refresh complete")
}

// refreshSession pulls fresh statuses for every cached object on one
// session. Each FetchStatus dispatches the fetched status through the
// session dispatcher, so the normal event path publishes every object's
// state. Runs after reconnects and on the cron schedule.
func (b *Bridge) refreshSession(sess *omni.Session) {
	addr := sess.Address()

	for _, n := range sess.Areas().Numbers() {
		if _, err := sess.Areas().FetchStatus(n); err != nil {
			b.logDebug("area refresh failed", "controller", addr, "area", n, "error", err)
		}
	}
	for _, n := range sess.Zones().Numbers() {
		if _, err := sess.Zones().FetchStatus(n); err != nil {
			b.logDebug("zone refresh failed", "controller", addr, "zone", n, "error", err)
		}
	}
	for _, n := range sess.Units().Numbers() {
		if _, err := sess.Units().FetchStatus(n); err != nil {
			b.logDebug("unit refresh failed", "controller", addr, "unit", n, "error", err)
		}
	}

	b.syncObjects(b.ctx, sess)
	b.sweepEventLog(sess)
}

// sweepEventLog publishes the controller's recent event log entries.
func (b *Bridge) sweepEventLog(sess *omni.Session) {
	lines, err := sess.EventLogReport(b.eventLogLimit)
	if err != nil {
		b.logError("event log sweep failed", err)
		return
	}

	msg := EventMessage{
		Controller: sess.Address(),
		Timestamp:  time.Now().UTC(),
		Type:       "event_log",
		Lines:      lines,
	}
	b.publishJSON(mqtt.Topics{}.ControllerEvent(sess.Address()), msg, false)
}

// syncObjects replaces the object registry's catalogue for one
// controller from the session's enumerated properties.
func (b *Bridge) syncObjects(ctx context.Context, sess *omni.Session) {
	if b.objects == nil {
		return
	}

	addr := sess.Address()

	areas := make([]device.Device, 0)
	for _, p := range sess.Areas().Properties() {
		areas = append(areas, device.Device{
			Controller: addr,
			Kind:       device.KindArea,
			Number:     p.Number,
			Name:       p.Name,
		})
	}
	zones := make([]device.Device, 0)
	for _, p := range sess.Zones().Properties() {
		zones = append(zones, device.Device{
			Controller: addr,
			Kind:       device.KindZone,
			Number:     p.Number,
			Name:       p.Name,
			Area:       p.Area,
			TypeCode:   p.TypeCode,
			TypeName:   p.TypeName,
		})
	}
	units := make([]device.Device, 0)
	for _, p := range sess.Units().Properties() {
		units = append(units, device.Device{
			Controller: addr,
			Kind:       device.KindUnit,
			Number:     p.Number,
			Name:       p.Name,
			TypeCode:   p.TypeCode,
			TypeName:   p.TypeName,
			Dimmable:   p.Dimmable,
		})
	}

	for kind, devices := range map[string][]device.Device{
		device.KindArea: areas,
		device.KindZone: zones,
		device.KindUnit: units,
	} {
		if err := b.objects.SyncController(ctx, addr, kind, devices); err != nil {
			b.logError("catalogue sync failed",
				fmt.Errorf("controller=%s kind=%s: %w", addr, kind, err))
		}
	}

	b.logInfo("catalogue synced",
		"controller", addr,
		"areas", len(areas),
		"zones", len(zones),
		"units", len(units))
}

// handleEvent fans one session event out to MQTT and the object
// registry. Runs on the session dispatcher's delivery goroutine.
func (b *Bridge) handleEvent(ev omni.Event) {
	switch ev.Type {
	case omni.EventStatus:
		b.handleStatusEvent(ev)

	case omni.EventAlarm:
		msg := AlarmMessage{
			Controller: ev.Address,
			Area:       ev.Number,
			Alarms:     ev.Alarms,
			Timestamp:  time.Now().UTC(),
		}
		b.publishJSON(mqtt.Topics{}.AreaAlarm(ev.Address, ev.Number), msg, false)

	case omni.EventOther:
		msg := EventMessage{
			Controller: ev.Address,
			Timestamp:  time.Now().UTC(),
			Type:       "other",
			Name:       ev.Name,
		}
		b.publishJSON(mqtt.Topics{}.ControllerEvent(ev.Address), msg, false)

	case omni.EventDisconnect:
		if sess, ok := b.sessions.Get(ev.Address); ok {
			b.publishControllerStatus(sess, "disconnected")
		}

	case omni.EventReconnect:
		sess, ok := b.sessions.Get(ev.Address)
		if !ok {
			return
		}
		b.publishControllerStatus(sess, "connected")
		// The reconnect handshake re-enumerated the caches. Refresh off
		// the dispatcher goroutine so every subscribed object gets a
		// fresh state publish covering notifications lost while down.
		select {
		case <-b.done:
			return
		default:
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.refreshSession(sess)
		}()
	}
}

// handleStatusEvent publishes a decoded object status and mirrors it
// into the object registry.
func (b *Bridge) handleStatusEvent(ev omni.Event) {
	state := stateMap(ev)
	if state == nil {
		return
	}

	kind := ev.Kind.String()
	msg := NewStateMessage(ev.Address, kind, ev.Number, state)
	b.publishJSON(mqtt.Topics{}.ObjectState(ev.Address, kind, ev.Number), msg, true)

	if b.objects != nil {
		id := device.ObjectID(ev.Address, kind, ev.Number)
		if err := b.objects.SetDeviceState(b.ctx, id, device.State(state)); err != nil {
			b.logDebug("registry state update skipped", "object", id, "reason", err.Error())
		}
	}
}

// stateMap flattens a status event's typed state into the JSON shape
// published on the state topics.
func stateMap(ev omni.Event) map[string]any {
	switch {
	case ev.Unit != nil:
		st := map[string]any{
			"on":    ev.Unit.On,
			"level": ev.Unit.Level,
			"text":  ev.Unit.Text,
		}
		if ev.Unit.Time > 0 {
			st["time"] = ev.Unit.Time
		}
		return st

	case ev.Zone != nil:
		st := map[string]any{
			"condition": ev.Zone.Condition,
			"latched":   ev.Zone.Latched,
			"arming":    ev.Zone.Arming,
			"loop":      ev.Zone.Loop,
		}
		if ev.Zone.HadTrouble {
			st["had_trouble"] = true
		}
		return st

	case ev.Area != nil:
		alarms := ev.Area.Alarms
		if alarms == nil {
			alarms = []string{}
		}
		st := map[string]any{
			"mode":   ev.Area.Mode,
			"alarms": alarms,
		}
		if ev.Area.EntryTimer > 0 {
			st["entry_timer"] = ev.Area.EntryTimer
		}
		if ev.Area.ExitTimer > 0 {
			st["exit_timer"] = ev.Area.ExitTimer
		}
		return st
	}
	return nil
}

// handleCommandMessage executes a command received on an object command
// topic.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) error {
	addr, kind, number, err := parseCommandTopic(topic)
	if err != nil {
		b.logError("invalid command topic", err)
		return nil
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logError("failed to parse command", err)
		return nil
	}
	if cmd.Command == "" {
		b.logError("command missing", fmt.Errorf("topic: %s", topic))
		return nil
	}

	sess, ok := b.sessions.Get(addr)
	if !ok {
		b.logError("command for unknown controller", fmt.Errorf("controller: %s", addr))
		return nil
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"controller", addr,
		"kind", kind,
		"number", number,
		"command", cmd.Command)

	switch kind {
	case device.KindUnit:
		err = sess.Units().SendCommand(cmd.Command, number, intParam(cmd.Parameters, "level"))
	case device.KindArea:
		err = sess.Areas().SendCommand(cmd.Command, intParam(cmd.Parameters, "user"), number)
	default:
		err = fmt.Errorf("%w: no commands for kind %q", omni.ErrUnknownCommand, kind)
	}

	if err != nil {
		b.logError("command execution failed",
			fmt.Errorf("controller=%s %s/%d %s: %w", addr, kind, number, cmd.Command, err))
	}
	return nil
}

// parseCommandTopic extracts controller address, kind and number from
// an object command topic.
func parseCommandTopic(topic string) (addr, kind string, number int, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != commandTopicParts || parts[0] != mqtt.TopicPrefix || parts[1] != "controller" {
		return "", "", 0, fmt.Errorf("topic: %s", topic)
	}
	number, convErr := strconv.Atoi(parts[4])
	if convErr != nil {
		return "", "", 0, fmt.Errorf("object number in topic %s: %w", topic, convErr)
	}
	return parts[2], parts[3], number, nil
}

// intParam reads an integer command parameter. JSON numbers arrive as
// float64.
func intParam(params map[string]any, key string) int {
	v, ok := params[key]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}

// publishControllerStatus publishes a retained connection status for
// one session.
func (b *Bridge) publishControllerStatus(sess *omni.Session, status string) {
	msg := NewStatusMessage(sess.Address(), status)
	if status == "connected" {
		msg.Model = sess.Controller().Model()
		msg.Firmware = sess.Controller().Firmware()
	}
	b.publishJSON(mqtt.Topics{}.ControllerStatus(sess.Address()), msg, true)
}

// publishJSON marshals and publishes one message at QoS 1.
func (b *Bridge) publishJSON(topic string, msg any, retained bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal message", err)
		return
	}
	if err := b.mqtt.Publish(topic, payload, 1, retained); err != nil {
		b.logError("failed to publish", fmt.Errorf("topic %s: %w", topic, err))
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
