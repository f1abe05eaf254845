package locprep

import (
	"runtime"
	"sync"

	"go.uber.org/multierr"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// LocalizerPool shares Localizer instances between page workers. Each
// Localizer owns its browser, so pages render in parallel while every
// single run stays sequential. Localizers are created lazily on first
// acquire.
type LocalizerPool struct {
	size       int
	opts       []Option
	localizers []*Localizer
	sem        chan *Localizer
	mu         sync.Mutex
	created    int
	closed     bool
}

// NewLocalizerPool creates a pool with capacity for n Localizers, each
// built with opts.
func NewLocalizerPool(n int, opts ...Option) *LocalizerPool {
	if n < 1 {
		n = 1
	}

	return &LocalizerPool{
		size:       n,
		opts:       opts,
		localizers: make([]*Localizer, 0, n),
		sem:        make(chan *Localizer, n),
	}
}

// Acquire gets a Localizer from the pool, creating one if needed.
// Blocks if all are in use.
func (p *LocalizerPool) Acquire() *Localizer {
	select {
	case l := <-p.sem:
		return l
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		l := NewLocalizer(p.opts...)

		p.mu.Lock()
		p.localizers = append(p.localizers, l)
		p.mu.Unlock()

		return l
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns a Localizer to the pool.
// The lock is released before sending to avoid deadlock when channel is full.
func (p *LocalizerPool) Release(l *Localizer) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- l
}

// Close releases all browser resources, combining close errors.
func (p *LocalizerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	localizers := p.localizers
	p.mu.Unlock()

	var err error
	for _, l := range localizers {
		err = multierr.Append(err, l.Close())
	}
	return err
}

// Size returns the pool capacity.
func (p *LocalizerPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	return max(MinPoolSize, min(n, MaxPoolSize))
}
