// Package mqtt connects the Kiln coordinator to its broker.
//
// MQTT is the coordinator's fleet protocol in both directions. Outbound, the
// coordinator publishes registry and lock events, printer state snapshots,
// and its own online/offline status. Inbound, printer agents publish retained
// state reports on kiln/fleet/{printer}/state, clients post dispatch requests
// on kiln/scheduler/request, and operators can order a shutdown on
// kiln/system/shutdown; the bridge package consumes all three through this
// client.
//
//	printer agents -> broker -> Kiln coordinator -> broker -> dashboards
//
// The client wraps paho.mqtt.golang with the pieces the coordinator needs:
// auto-reconnect with subscription replay, a Last Will so a crashed
// coordinator reads offline, QoS and payload validation on publish, and
// panic recovery around message handlers.
//
// TLS and broker credentials come from config; anonymous plaintext is for
// local development only.
package mqtt
