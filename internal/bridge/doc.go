// Package bridge connects controller sessions to the MQTT northbound
// surface.
//
// The bridge owns the daemon's runtime loops:
//   - An update loop that advances every session (notification dispatch,
//     reconnect scheduling) on a fixed tick.
//   - Event fan-out: decoded status, alarm and system events from the
//     sessions are published as JSON on per-object MQTT topics and
//     mirrored into the object registry.
//   - Command handling: messages on the object command topics are
//     translated into controller commands.
//   - Periodic health reporting, telemetry writes and a scheduled full
//     refresh of statuses and the object catalogue.
//
// # Architecture
//
//	┌─────────────┐   events    ┌────────┐   state/alarm/event   ┌────────┐
//	│ omni.Session ├────────────▶ Bridge ├───────────────────────▶ MQTT   │
//	│  (per panel) ◀────────────┤        ◀───────────────────────┤ broker │
//	└─────────────┘  commands   └───┬────┘       commands        └────────┘
//	                                │
//	                     object registry, InfluxDB
//
// # Usage
//
//	b, err := bridge.New(bridge.Options{
//	    Sessions: sessions,
//	    MQTT:     mqttClient,
//	    Objects:  objectRegistry,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Session updates run
// on a single goroutine owned by the bridge.
package bridge
