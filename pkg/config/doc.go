// Package config loads typed configuration structs from environment
// variables using github.com/caarlos0/env tags, with optional .env file
// support via github.com/joho/godotenv.
//
// Each struct type is parsed exactly once per process and cached, so the
// same config can be requested from multiple components without repeated
// environment reads:
//
//	type PGConfig struct {
//	    ConnString string `env:"DATABASE_URL,required"`
//	}
//
//	var cfg PGConfig
//	config.MustLoad(&cfg)
package config
