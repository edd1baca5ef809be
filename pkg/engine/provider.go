package engine

import (
	"fmt"
	"sync"
)

// Loader builds a fresh Engine, typically from the lexicon file on disk.
type Loader func() (*Engine, error)

// Provider holds the Engine in service and swaps it on Reload.
type Provider struct {
	mu   sync.RWMutex
	cur  *Engine
	load Loader
}

// NewProvider loads the first Engine.
func NewProvider(load Loader) (*Provider, error) {
	p := &Provider{load: load}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Static returns a Provider that always serves e. Reload is a no-op.
func Static(e *Engine) *Provider {
	return &Provider{cur: e, load: func() (*Engine, error) { return e, nil }}
}

// Current returns the Engine in service.
func (p *Provider) Current() *Engine {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur
}

// Reload builds a new Engine (hot reload). On failure the previous Engine
// stays in service.
func (p *Provider) Reload() error {
	e, err := p.load()
	if err != nil {
		return fmt.Errorf("reload engine: %w", err)
	}
	p.mu.Lock()
	p.cur = e
	p.mu.Unlock()
	return nil
}
