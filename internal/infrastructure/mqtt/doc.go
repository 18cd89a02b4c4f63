// Package mqtt provides MQTT client connectivity for OmniBridge.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// OmniBridge uses MQTT as its northbound surface: object state and
// session lifecycle are published for home automation platforms, and a
// command topic per object accepts inbound control requests. The broker
// (Mosquitto) decouples the bridge from its consumers.
//
//	Controllers ↔ OmniBridge ↔ MQTT Broker ↔ Automation platforms
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all inbound object commands
//	err = client.Subscribe(mqtt.Topics{}.AllObjectCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a state update
//	topic := mqtt.Topics{}.ObjectState("192.168.1.50:4369", "unit", 1)
//	client.Publish(topic, []byte(`{"on":true,"level":75}`), 1, true)
package mqtt
