// Package config loads service configuration with Viper.
//
// Values come from a YAML config file, then a .env file (godotenv), then the
// process environment. Each key the target struct declares (through its
// mapstructure tags) or the file sets is bound to one variable, the key
// upper-cased with dots as underscores: API_BASE_URL fills `api.base_url`.
// Other variables are ignored. Map fields are not read from the environment.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("piholectl", &cfg, config.WithConfigFile(path))
package config
