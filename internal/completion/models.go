package completion

import "sync"

// ModelPair holds the primary and fallback model identifiers. It is
// read-mostly: every request reads it, and only a config reload writes it.
type ModelPair struct {
	mu       sync.RWMutex
	primary  string
	fallback string
}

// NewModelPair creates a ModelPair.
func NewModelPair(primary, fallback string) *ModelPair {
	return &ModelPair{primary: primary, fallback: fallback}
}

// Get returns the current primary and fallback identifiers.
func (p *ModelPair) Get() (string, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.primary, p.fallback
}

// Set replaces both identifiers atomically. Empty values keep the previous
// identifier so a partial config file cannot blank a model.
func (p *ModelPair) Set(primary, fallback string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if primary != "" {
		p.primary = primary
	}
	if fallback != "" {
		p.fallback = fallback
	}
}
