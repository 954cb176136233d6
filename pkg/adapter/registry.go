package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Factory builds an unconnected adapter. A nil logger means discard.
type Factory func(logger *slog.Logger) Adapter

// ErrNoAdapterType is returned when a connection names no adapter type.
var ErrNoAdapterType = errors.New("adapter type not specified")

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a database type available to sources and destinations.
// Adapter packages call it from init; a later registration replaces an earlier one.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(name)] = f
}

// Lookup returns the factory registered for name. Names are case-insensitive.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[strings.ToLower(name)]
	return f, ok
}

// Names returns the registered database types in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the adapter for cfg.Type without connecting it.
func New(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, ErrNoAdapterType
	}
	f, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: Names()}
	}
	return f(logger), nil
}

// Open builds the adapter for cfg and connects it. The caller closes it.
func Open(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	a, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	return a, nil
}

// UnknownAdapterError reports a target.type no adapter package registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown database type %q (available: %s); check target.type in leapclean.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
