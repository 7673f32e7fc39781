package com

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRuntime tracks the initialize/uninitialize balance and can inject
// failures on a subset of Initialize calls.
type countingRuntime struct {
	initOK   atomic.Int64
	uninit   atomic.Int64
	failOdds float64
	rng      *rand.Rand
	mu       sync.Mutex
}

func (r *countingRuntime) Initialize() error {
	r.mu.Lock()
	fail := r.rng != nil && r.rng.Float64() < r.failOdds
	r.mu.Unlock()
	if fail {
		return NewHResultError(KindRuntimeInitFailed, 0x8000FFFF, "injected")
	}
	r.initOK.Add(1)
	return nil
}

func (r *countingRuntime) Uninitialize() {
	r.uninit.Add(1)
}

func TestAcquireReleaseBalances(t *testing.T) {
	api := &countingRuntime{}

	ctx, err := Acquire(api)
	require.NoError(t, err)
	ctx.Release()

	assert.Equal(t, int64(1), api.initOK.Load())
	assert.Equal(t, int64(1), api.uninit.Load())
}

func TestReleaseIsIdempotent(t *testing.T) {
	api := &countingRuntime{}

	ctx, err := Acquire(api)
	require.NoError(t, err)
	ctx.Release()
	ctx.Release()
	ctx.Release()

	assert.Equal(t, int64(1), api.uninit.Load())
}

func TestReleaseOnNilHandleIsSafe(t *testing.T) {
	var ctx *RuntimeContext
	assert.NotPanics(t, func() { ctx.Release() })
}

func TestAcquireFailureDoesNotLeak(t *testing.T) {
	api := &countingRuntime{failOdds: 1, rng: rand.New(rand.NewSource(1))}

	ctx, err := Acquire(api)
	require.Error(t, err)
	assert.Nil(t, ctx)
	assert.Equal(t, KindRuntimeInitFailed, KindOf(err))

	// nothing was initialized, so nothing may be torn down
	assert.Equal(t, int64(0), api.uninit.Load())
}

func TestAlreadyInitializedKindIsPreserved(t *testing.T) {
	api := &failWith{err: NewError(KindAlreadyInitialized, "thread already holds a context")}
	_, err := Acquire(api)
	require.Error(t, err)
	assert.Equal(t, KindAlreadyInitialized, KindOf(err))
}

// An already-initialized report means the platform counted the call, so
// Acquire must hand the count back even though no context was produced.
func TestAlreadyInitializedIsBalanced(t *testing.T) {
	api := &failWith{err: NewHResultError(KindAlreadyInitialized, 0x1, "thread already holds a context")}

	ctx, err := Acquire(api)
	require.Error(t, err)
	assert.Nil(t, ctx)
	assert.Equal(t, int64(1), api.uninits.Load())
}

func TestOtherInitFailuresAreNotBalanced(t *testing.T) {
	api := &failWith{err: NewError(KindRuntimeInitFailed, "no apartment")}

	_, err := Acquire(api)
	require.Error(t, err)
	assert.Equal(t, int64(0), api.uninits.Load())
}

type failWith struct {
	err     error
	uninits atomic.Int64
}

func (f *failWith) Initialize() error { return f.err }
func (f *failWith) Uninitialize()     { f.uninits.Add(1) }

// Every successful acquire must be matched by exactly one teardown no matter
// how many goroutines race or how many acquires fail.
func TestConcurrentAcquireReleaseDiscipline(t *testing.T) {
	api := &countingRuntime{failOdds: 0.3, rng: rand.New(rand.NewSource(42))}

	const goroutines = 64
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, err := Acquire(api)
			if err != nil {
				return
			}
			defer ctx.Release()
			// double release on some paths must not skew the balance
			ctx.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, api.initOK.Load(), api.uninit.Load())
	assert.LessOrEqual(t, api.initOK.Load(), int64(goroutines))
}
