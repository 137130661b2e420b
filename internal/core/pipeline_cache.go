package core

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

type CacheState int32

const (
	Uninitialized CacheState = iota
	Initializing
	Ready
)

func (s CacheState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// PipelineCache holds at most one pipeline for the lifetime of the process.
//
// The first successful Get decides the device. Every later Get returns that
// same pipeline whatever device it asks for; there is one pipeline per
// process, not one per device. A failed construction leaves the cache empty
// so the next Get tries again.
type PipelineCache struct {
	factory PipelineFactory

	mu       sync.Mutex
	state    atomic.Int32
	pipeline atomic.Pointer[Pipeline]
}

func NewPipelineCache(factory PipelineFactory) *PipelineCache {
	return &PipelineCache{factory: factory}
}

func (c *PipelineCache) Get(device string) (Pipeline, error) {
	if p := c.pipeline.Load(); p != nil {
		c.logIgnoredDevice(*p, device)
		return *p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have finished construction while we waited
	if p := c.pipeline.Load(); p != nil {
		c.logIgnoredDevice(*p, device)
		return *p, nil
	}

	c.state.Store(int32(Initializing))
	p, err := c.factory(device)
	if err != nil {
		c.state.Store(int32(Uninitialized))
		return nil, err
	}

	c.pipeline.Store(&p)
	c.state.Store(int32(Ready))
	return p, nil
}

func (c *PipelineCache) State() CacheState {
	return CacheState(c.state.Load())
}

func (c *PipelineCache) logIgnoredDevice(p Pipeline, device string) {
	if device == "" || device == p.Device().Name {
		return
	}
	slog.Debug("pipeline already created, ignoring requested device", "requested", device, "bound", p.Device().Name)
}

// Close releases the cached pipeline. It is meant for process shutdown only;
// the cache is not reusable afterwards.
func (c *PipelineCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p := c.pipeline.Load(); p != nil {
		(*p).Release()
	}
}
