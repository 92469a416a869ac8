// Package mqtt provides MQTT client connectivity for Gray Logic Presence.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions restored after reconnect
//   - Last Will and Testament (LWT) for gateway offline detection
//
// The gateway uses MQTT in two roles: as an optional frame transport
// (devices publish signal frames on one shared topic) and as a notification
// bus (every applied signal is republished as a presence event per device).
//
//	Devices ──signal──▶ graylogic/presence/signal ──▶ Gateway
//	Gateway ──event───▶ graylogic/presence/device/{host}/event
//	Gateway ──status──▶ graylogic/presence/system/status (retained, LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("%s: %s", topic, payload)
//	        return nil
//	    })
package mqtt
