// Package config loads wavechat configuration.
//
// It uses Viper to read a YAML file and environment variables, with an
// optional .env file loaded through godotenv first.
//
// # Usage
//
//	var cfg Config
//	err := config.LoadConfig("wavechat", &cfg, config.WithEnvPrefix("WAVECHAT"))
//
// Environment variables override file values using underscore-separated
// paths (e.g., WAVECHAT_API_BASE_URL for api.base_url).
package config
