package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sentiment-backend/internal/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	device   Device
	released atomic.Bool
}

func (p *fakePipeline) Predict(text string) (types.Prediction, error) {
	if text == "" {
		return types.Prediction{}, errors.New("empty text")
	}
	if len(text)%2 == 0 {
		return types.Prediction{Label: "POSITIVE", Score: 0.9}, nil
	}
	return types.Prediction{Label: "NEGATIVE", Score: 0.8}, nil
}

func (p *fakePipeline) Device() Device {
	return p.device
}

func (p *fakePipeline) Release() {
	p.released.Store(true)
}

type countingFactory struct {
	calls atomic.Int32
	delay time.Duration
}

func (f *countingFactory) build(device string) (Pipeline, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	d, err := ParseDevice(device)
	if err != nil {
		return nil, err
	}
	return &fakePipeline{device: d}, nil
}

func TestPipelineCache_SameInstance(t *testing.T) {
	f := &countingFactory{}
	cache := NewPipelineCache(f.build)

	p1, err := cache.Get("")
	require.NoError(t, err)
	p2, err := cache.Get("")
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, DefaultDevice, p1.Device().Name)
	assert.Equal(t, Ready, cache.State())
}

func TestPipelineCache_IgnoresDeviceAfterFirstCall(t *testing.T) {
	f := &countingFactory{}
	cache := NewPipelineCache(f.build)

	p1, err := cache.Get("cpu")
	require.NoError(t, err)
	p2, err := cache.Get("cuda:0")
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, "cpu", p2.Device().Name)
	assert.Equal(t, CPU, p2.Device().Backend)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestPipelineCache_FailedConstructionNotCached(t *testing.T) {
	f := &countingFactory{}
	cache := NewPipelineCache(f.build)

	_, err := cache.Get("tpu")
	require.ErrorIs(t, err, ErrUnsupportedDevice)
	assert.Equal(t, Uninitialized, cache.State())

	p, err := cache.Get("cpu")
	require.NoError(t, err)
	assert.Equal(t, "cpu", p.Device().Name)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, Ready, cache.State())
}

func TestPipelineCache_ConcurrentFirstCalls(t *testing.T) {
	f := &countingFactory{delay: 50 * time.Millisecond}
	cache := NewPipelineCache(f.build)

	const callers = 16
	results := make([]Pipeline, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			p, err := cache.Get("cpu")
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, p := range results {
		assert.Same(t, results[0], p)
	}
}

func TestPipelineCache_StateWhileInitializing(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	cache := NewPipelineCache(func(device string) (Pipeline, error) {
		close(started)
		<-unblock
		return &fakePipeline{device: Device{Name: device, Backend: CPU}}, nil
	})

	assert.Equal(t, Uninitialized, cache.State())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := cache.Get("cpu")
		assert.NoError(t, err)
	}()

	<-started
	assert.Equal(t, Initializing, cache.State())
	close(unblock)
	<-done
	assert.Equal(t, Ready, cache.State())
}

func TestPipelineCache_CloseReleases(t *testing.T) {
	f := &countingFactory{}
	cache := NewPipelineCache(f.build)

	p, err := cache.Get("cpu")
	require.NoError(t, err)

	cache.Close()
	assert.True(t, p.(*fakePipeline).released.Load())
}

func TestCacheStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "initializing", Initializing.String())
	assert.Equal(t, "ready", Ready.String())
}
