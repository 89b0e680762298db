// Package mqtt is the MQTT entity state sink.
//
// Decoded entity states publish to retained topics so any subscriber
// (the host platform, a dashboard, another bridge) sees the last known
// state immediately on connect:
//
//	modbuscore/state/{entity_id}          JSON state payload
//	modbuscore/system/status              online/offline (LWT backed)
//
// The client wraps paho.mqtt.golang with connection management,
// last-will offline detection and automatic reconnection. All methods
// are safe for concurrent use; publishing during a broker outage
// returns an error the poller treats like any other per-cycle failure.
package mqtt
