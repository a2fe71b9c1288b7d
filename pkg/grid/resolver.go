package grid

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultDebounce is how long the resolver waits for a burst of resize or
// mutation observations to settle before recomputing.
const DefaultDebounce = 250 * time.Millisecond

// Resolver keeps the Config of a single container current.
//
// Observations of the container box (Observe) and of its own style
// (StyleMutated) are debounced; a breakpoint change recomputes immediately.
// Until a measurement with a positive content width arrives, Config reports
// false and gesture engines treat the container as not yet actionable.
//
// A Resolver is safe for concurrent use: the debounced recompute runs on a
// timer goroutine.
type Resolver struct {
	mu        sync.Mutex
	bp        Breakpoint
	m         Measurement
	measured  bool
	cfg       Config
	ok        bool
	listeners []func(Config)
	debounced func(func())
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	debounce time.Duration
}

// WithDebounce overrides DefaultDebounce. A zero duration disables
// debouncing and recomputes on every observation.
func WithDebounce(d time.Duration) ResolverOption {
	return func(o *resolverOptions) { o.debounce = d }
}

// NewResolver creates a resolver for a container rendered at bp.
func NewResolver(bp Breakpoint, opts ...ResolverOption) *Resolver {
	o := resolverOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Resolver{bp: bp}
	if o.debounce > 0 {
		r.debounced = debounce.New(o.debounce)
	} else {
		r.debounced = func(f func()) { f() }
	}
	return r
}

// Observe records a new measurement of the container box.
func (r *Resolver) Observe(m Measurement) {
	r.mu.Lock()
	r.m = m
	r.measured = true
	r.mu.Unlock()
	r.debounced(r.recompute)
}

// StyleMutated records a change of the container's own padding, which
// changes the effective content width without a resize.
func (r *Resolver) StyleMutated(paddingX float64) {
	r.mu.Lock()
	r.m.PaddingX = paddingX
	r.mu.Unlock()
	r.debounced(r.recompute)
}

// SetBreakpoint switches the active breakpoint and recomputes at once.
func (r *Resolver) SetBreakpoint(bp Breakpoint) {
	r.mu.Lock()
	r.bp = bp
	r.mu.Unlock()
	r.recompute()
}

// Flush recomputes synchronously, bypassing the debounce window.
func (r *Resolver) Flush() { r.recompute() }

// Config returns the current config and whether one has been resolved.
func (r *Resolver) Config() (Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg, r.ok
}

// Breakpoint returns the active breakpoint.
func (r *Resolver) Breakpoint() Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bp
}

// Measurement returns the last recorded measurement.
func (r *Resolver) Measurement() Measurement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m
}

// OnChange registers fn to be called with every newly resolved config.
// Callbacks run outside the resolver lock.
func (r *Resolver) OnChange(fn func(Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Resolver) recompute() {
	r.mu.Lock()
	if !r.measured {
		r.mu.Unlock()
		return
	}
	cfg, err := ConfigFor(r.bp, r.m)
	ok := err == nil
	changed := ok && (!r.ok || cfg != r.cfg)
	r.cfg, r.ok = cfg, ok
	listeners := append([]func(Config){}, r.listeners...)
	r.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(cfg)
	}
}
