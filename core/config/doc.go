// Package config loads environment-driven settings into structs with
// caarlos0/env. A .env file in the working directory is read once, on first
// use, and values already present in the process environment win over it.
//
//	type RelayConfig struct {
//		Source      string        `env:"APP_SOURCE" envDefault:"postgres"`
//		Window      time.Duration `env:"APP_RECONNECT_WINDOW" envDefault:"180s"`
//		Concurrency int           `env:"APP_CONCURRENCY" envDefault:"10"`
//	}
//
//	var cfg RelayConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Each struct type is parsed once and cached; a second Load of the same type
// returns the first result even if the environment changed in between. Reset
// clears the cache.
package config
