// Package memory provides a config source held in process. Client tests
// build their send option overrides from it.
package memory

import (
	"context"
	"sync"

	"github.com/code-payments/multisig-client/pkg/config"
)

// Config is a config.Config whose value and failure are set directly.
type Config struct {
	mu     sync.RWMutex
	value  interface{}
	err    error
	closed bool
}

// NewConfig returns a source holding value. A nil value yields
// config.ErrNoValue, so wrapped values fall back to their default.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.closed:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

func (c *Config) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Set replaces the value returned by Get. Nil unsets it.
func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// Fail makes Get return err until Fail(nil) is called.
func (c *Config) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
