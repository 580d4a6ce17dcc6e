// Package mqtt connects the frame to an MQTT broker.
//
// The broker is how the frame is driven remotely: home automation publishes
// commands (start, tap) to the frame's command topics, and the frame
// publishes its slideshow state and its "slideshow running" notification as
// retained messages so dashboards see the latest value on subscribe.
//
// This package manages:
//   - Connection with auto-reconnect and subscription restore
//   - Last Will and Testament on photoframe/system/status
//   - Publishing raw, JSON and retained payloads
//   - Handler panic containment
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{DeviceID: "frame-001"}
//	err = client.Subscribe(topics.CommandTap(), 1, func(topic string, payload []byte) error {
//	    controller.Tap()
//	    return nil
//	})
package mqtt
