package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]any)

	defaultEnvLoaded sync.Once
)

// Load populates cfg from environment variables using `env` struct tags.
// Each configuration type is parsed once per process; subsequent calls for
// the same type return the cached value. The default .env file, if present,
// is loaded lazily before the first parse.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	defaultEnvLoaded.Do(func() {
		// Missing .env is fine, real deployments use process env.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	cacheMu.RLock()
	if cached, ok := cache[key]; ok {
		cacheMu.RUnlock()
		*cfg = cached.(T)
		return nil
	}
	cacheMu.RUnlock()

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cacheMu.Lock()
	cache[key] = *cfg
	cacheMu.Unlock()

	return nil
}

// MustLoad is Load that panics on failure. Use for configuration the
// process cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeName[T](), err))
	}
}

// LoadEnv loads one or more env files into the process environment before
// any configs are parsed. Later files take precedence over earlier ones.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return godotenv.Load()
	}
	for _, path := range paths {
		if err := godotenv.Overload(path); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}
	return nil
}

// ResetCache clears parsed configuration values. Intended for tests that
// mutate the environment between loads.
func ResetCache() {
	cacheMu.Lock()
	cache = make(map[string]any)
	cacheMu.Unlock()
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
