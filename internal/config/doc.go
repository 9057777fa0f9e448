// Package config provides configuration management for WebHarvest.
//
// Configuration comes from three layers, later layers overriding earlier:
//  1. Built-in defaults (NewConfig)
//  2. The optional .webharvest YAML file with per-site sections
//  3. CLI flags
//
// The Config struct is passed through the application via dependency
// injection; there is no global configuration state.
package config
