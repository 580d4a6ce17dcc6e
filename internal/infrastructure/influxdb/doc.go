// Package influxdb ships frame telemetry to InfluxDB v2.
//
// The frame records every slideshow transition as a point so a household
// dashboard can show when each frame was running, paused or asleep for the
// night. Points are batched by the official influxdb-client-go writer and
// never block the slideshow.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Error("telemetry write", "error", err) })
//
//	client.WritePoint("slideshow_state",
//	    map[string]string{"device_id": "living-room"},
//	    map[string]any{"is_running": 1},
//	    time.Now())
package influxdb
