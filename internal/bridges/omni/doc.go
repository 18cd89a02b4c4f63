// Package omni implements the Omni-Link bridge for HAI/Leviton Omni
// and Lumina home automation controllers.
//
// This package maintains one session per controller, mirrors the
// controller's object model into local caches, and fans decoded change
// notifications out to subscribers.
//
// # Architecture
//
//	┌──────────────┐           ┌──────────────────┐  Omni-Link
//	│  Subscribers │◄──events──│     Session      │◄───────────► Controller
//	│ (MQTT, etc.) │           │   (this pkg)     │  (Connector)
//	└──────────────┘           └──────────────────┘
//
// # Key Responsibilities
//
//   - Connect to controllers over the Omni-Link transport and perform
//     the handshake (notifications, system information, enumeration)
//   - Cache area, zone, unit and panel properties and status
//   - Decode the controller's packed binary status encodings
//   - Execute unit, security and console commands
//   - Reconnect with exponential backoff after connection loss
//
// # Sessions
//
// A Session owns the single connection to one controller. Requests are
// serialized through the session; unsolicited notifications are queued
// by the transport listeners and decoded by Update, which a single
// periodic worker calls. The Registry keys sessions by host:port so a
// controller is never connected twice.
//
// Example:
//
//	sess, err := omni.NewSession(cfg, dialer)
//	if err != nil {
//	    return err
//	}
//	id := sess.Subscribe(func(ev omni.Event) { ... })
//	if err := sess.Connect(); err != nil {
//	    return err
//	}
//
// # Controller Flavors
//
// Omni panels are security controllers, Lumina panels lighting
// controllers. The flavor is derived from the model during the
// handshake and drives mode names, the alarm set and event log
// rendering.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple
// goroutines, except that Session.Update must be called from a single
// goroutine.
package omni
