// Package mqtt connects the bridge to an MQTT broker.
//
// The bridge mirrors every characteristic change onto retained state topics
// and accepts remote writes on command topics:
//
//	ohbridge/bridge/status                      online/offline (Last Will)
//	ohbridge/state/{serial}/{characteristic}    retained values
//	ohbridge/set/{serial}/{characteristic}      remote writes
//
// The client reconnects automatically and restores its subscriptions after
// every reconnect. Handler panics are recovered and logged.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCharacteristicSets(), 1, handler)
package mqtt
