// Package mqtt provides MQTT client connectivity for the discovery daemon.
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
// The daemon uses MQTT to announce discovered devices to the rest of the
// Gray Logic installation and to receive start/stop commands. The broker
// decouples the discovery engine from its consumers.
//
//	Discovery Daemon ↔ MQTT Broker ↔ Gray Logic Core / UIs
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
//	// Subscribe to daemon commands
//	err = client.Subscribe(mqtt.Topics{}.Command(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Announce a discovered device
//	topic := mqtt.Topics{}.Device("camera", "192.168.0.42")
//	client.PublishRetained(topic, []byte(`{"address":"192.168.0.42"}`))
package mqtt
