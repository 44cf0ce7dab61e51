// Package wrapper adapts raw config.Config sources into typed values with
// defaults.
package wrapper

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// Parser converts the raw bytes of a source, such as an environment variable,
// into a typed value.
type Parser[T any] func([]byte) (T, error)

type wrapped[T any] struct {
	override     config.Config
	defaultValue T
	parse        Parser[T]

	stateMu   sync.RWMutex
	lastValue T
}

// New returns a typed view over override. Sources may yield values of type T
// directly, or bytes that are converted with parse.
func New[T any](override config.Config, defaultValue T, parse Parser[T]) config.Value[T] {
	return &wrapped[T]{
		override:     override,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *wrapped[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.setLast(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	var newValue T
	switch override := override.(type) {
	case T:
		newValue = override
	case []byte:
		if c.parse == nil {
			return lastValue, ErrUnsuportedConversion
		}

		newValue, err = c.parse(override)
		if err != nil {
			return lastValue, err
		}
	default:
		return lastValue, ErrUnsuportedConversion
	}

	c.setLast(newValue)
	return newValue, nil
}

func (c *wrapped[T]) setLast(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *wrapped[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *wrapped[T]) Shutdown() {
	c.override.Shutdown()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return New(override, defaultValue, func(b []byte) (bool, error) {
		return strconv.ParseBool(string(b))
	})
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return New(override, defaultValue, func(b []byte) (string, error) {
		return string(b), nil
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return New(override, defaultValue, func(b []byte) (uint64, error) {
		return strconv.ParseUint(string(b), 10, 64)
	})
}

