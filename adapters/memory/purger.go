package memory

import (
	"context"
	"sync"
)

// Purger records purge calls instead of reaching a CDN. Test double.
type Purger struct {
	mu    sync.Mutex
	calls [][]string
}

func NewPurger() *Purger { return &Purger{} }

func (p *Purger) Purge(_ context.Context, tags []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, append([]string(nil), tags...))
	return nil
}

// Calls returns every recorded purge invocation.
func (p *Purger) Calls() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]string, len(p.calls))
	copy(out, p.calls)
	return out
}
