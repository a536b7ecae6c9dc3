// Package config loads typed configuration from environment variables.
//
// Load parses a struct with github.com/caarlos0/env/v11 tags, reading a local
// .env file first through github.com/joho/godotenv. Results are cached per
// type, so every package can call Load for the settings it owns without
// re-parsing. Structs implementing Validator are checked after parsing.
//
// # Usage
//
//	var cfg twofactor.Config
//	config.MustLoad(&cfg)
package config
