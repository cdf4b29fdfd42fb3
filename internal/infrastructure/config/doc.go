// Package config loads the bridge configuration from a YAML file, applies
// OHBRIDGE_* environment overrides and validates the result.
//
// Secrets (the openHAB token, the MQTT password and the JWT signing secret)
// are best supplied through the environment; keep the file itself at 0600.
//
//	cfg, err := config.Load(config.PathFromEnv())
//	if err != nil {
//	    return err
//	}
//	client := openhab.New(cfg.OpenHAB)
package config
