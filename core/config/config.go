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
	ErrNilTarget   = errors.New("config: target must be a non-nil pointer to struct")
	ErrParseFailed = errors.New("config: failed to parse environment")
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> loaded value (not a pointer)
	loadMu     sync.Mutex
)

// Load fills cfg from the environment. The first call for a type parses the
// environment; later calls for the same type copy the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilTarget
	}
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return ErrNilTarget
	}

	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	loadMu.Lock()
	defer loadMu.Unlock()

	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	dotenvOnce.Do(func() {
		// A missing .env file is normal outside local development.
		_ = godotenv.Load()
	})

	var loaded T
	if err := env.Parse(&loaded); err != nil {
		return errors.Join(ErrParseFailed, err)
	}
	cache.Store(typ, loaded)
	*cfg = loaded
	return nil
}

// MustLoad is Load that panics on failure.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: %T: %v", cfg, err))
	}
}

// Reset drops every cached value. Tests use it between cases that set different
// environments for the same type.
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	cache.Clear()
}
