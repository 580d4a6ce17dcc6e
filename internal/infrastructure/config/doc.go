// Package config loads the frame's YAML configuration.
//
// Values come from three layers, each overriding the one before: the
// defaults in this package, configs/config.yaml, and PHOTOFRAME_*
// environment variables. Durations use Go syntax ("30s", "3m").
//
// Keep the broker password and the InfluxDB token out of the file; set
// PHOTOFRAME_MQTT_PASSWORD and PHOTOFRAME_INFLUXDB_TOKEN instead.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
package config
