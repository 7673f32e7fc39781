package inspect

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/typelib"
)

// fakeSource serves canned descriptions or errors per class id and counts
// calls so the static-first contract is observable.
type fakeSource struct {
	mu       sync.Mutex
	byClass  map[uuid.UUID]*typelib.RawDescription
	errs     map[uuid.UUID]error
	defErr   error
	calls    atomic.Int64
	seenByID map[uuid.UUID]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		byClass:  map[uuid.UUID]*typelib.RawDescription{},
		errs:     map[uuid.UUID]error{},
		seenByID: map[uuid.UUID]int{},
	}
}

func (s *fakeSource) Describe(classID uuid.UUID) (*typelib.RawDescription, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.seenByID[classID]++
	raw, haveRaw := s.byClass[classID]
	err, haveErr := s.errs[classID]
	s.mu.Unlock()
	if haveErr {
		return nil, err
	}
	if haveRaw {
		return raw, nil
	}
	if s.defErr != nil {
		return nil, s.defErr
	}
	return nil, com.NewError(com.KindNoTypeLibrary, "no registration for %s", classID)
}

// nullRuntime always initializes; workers never fail to acquire.
type nullRuntime struct{}

func (nullRuntime) Initialize() error { return nil }
func (nullRuntime) Uninitialize()     {}

// balancedRuntime counts initialize/uninitialize pairs.
type balancedRuntime struct {
	inits   atomic.Int64
	uninits atomic.Int64
}

func (r *balancedRuntime) Initialize() error { r.inits.Add(1); return nil }
func (r *balancedRuntime) Uninitialize()     { r.uninits.Add(1) }

func identityN(n int) com.ComponentIdentity {
	id := uuid.MustParse(fmt.Sprintf("%08x-0000-0000-0000-000000000000", n+1))
	return com.ComponentIdentity{ClassID: id, ProgID: fmt.Sprintf("Test.Obj.%d", n)}
}

func simpleDescription(classID uuid.UUID) *typelib.RawDescription {
	return &typelib.RawDescription{
		Name:    "ITest",
		ClassID: classID,
		Members: []typelib.RawMember{
			{Name: "Count", Invoke: typelib.InvokePropertyGet, Return: typelib.VT_I4},
		},
	}
}

func TestStaticPathSuccess(t *testing.T) {
	identity := identityN(0)
	static := newFakeSource()
	static.byClass[identity.ClassID] = simpleDescription(identity.ClassID)
	dynamic := newFakeSource()

	s := NewScheduler(static, dynamic, nullRuntime{})
	results := Collect(s.Run([]com.ComponentIdentity{identity}, Options{Workers: 1, AllowDynamic: true}))

	require.Len(t, results, 1)
	result := results[0]
	require.Nil(t, result.Err)
	assert.Equal(t, com.PathStatic, result.Path)
	assert.Equal(t, "ITest", result.Surface.Name)

	// static satisfied the identity, the dynamic source must stay untouched
	assert.Equal(t, int64(0), dynamic.calls.Load())
}

func TestNoFallbackWhenDynamicDisallowed(t *testing.T) {
	identity := identityN(0)
	static := newFakeSource()
	dynamic := newFakeSource()
	dynamic.byClass[identity.ClassID] = simpleDescription(identity.ClassID)

	s := NewScheduler(static, dynamic, nullRuntime{})
	results := Collect(s.Run([]com.ComponentIdentity{identity}, Options{Workers: 1}))

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, com.KindNoTypeLibrary, results[0].Err.Kind)
	assert.Equal(t, com.PathFailed, results[0].Path)
	assert.Equal(t, int64(0), dynamic.calls.Load())
}

func TestDynamicFallbackOnMissingTypeLibrary(t *testing.T) {
	identity := identityN(0)
	static := newFakeSource()
	dynamic := newFakeSource()
	dynamic.byClass[identity.ClassID] = &typelib.RawDescription{
		Name:    "IView",
		ClassID: identity.ClassID,
		Members: []typelib.RawMember{
			{Name: "Filter", Invoke: typelib.InvokePropertyPut,
				Params: []typelib.RawParam{{Name: "value", Type: typelib.VT_BSTR, Flags: typelib.ParamIn}}},
		},
	}

	s := NewScheduler(static, dynamic, nullRuntime{})
	results := Collect(s.Run([]com.ComponentIdentity{identity}, Options{Workers: 1, AllowDynamic: true}))

	require.Len(t, results, 1)
	result := results[0]
	require.Nil(t, result.Err)
	assert.Equal(t, com.PathDynamic, result.Path)
	require.Len(t, result.Surface.Members, 1)
	assert.Equal(t, "Filter", result.Surface.Members[0].Name)
	assert.Equal(t, com.AccessWrite, result.Surface.Members[0].Access)
}

func TestNoFallbackOnOtherStaticFailures(t *testing.T) {
	identity := identityN(0)
	static := newFakeSource()
	static.errs[identity.ClassID] = com.NewError(com.KindMalformedDescriptor, "truncated")
	dynamic := newFakeSource()

	s := NewScheduler(static, dynamic, nullRuntime{})
	results := Collect(s.Run([]com.ComponentIdentity{identity}, Options{Workers: 1, AllowDynamic: true}))

	require.Len(t, results, 1)
	assert.Equal(t, com.KindMalformedDescriptor, results[0].Err.Kind)
	assert.Equal(t, int64(0), dynamic.calls.Load())
}

// Every scheduled identity yields exactly one result even when a slice of
// them fail, and the failures never abort the batch.
func TestPartialFailureCompleteness(t *testing.T) {
	const total = 10000
	const failEvery = 20 // 5 percent

	identities := make([]com.ComponentIdentity, total)
	static := newFakeSource()
	for i := range identities {
		identities[i] = identityN(i)
		if i%failEvery == 0 {
			static.errs[identities[i].ClassID] = com.NewError(com.KindInstantiationFailed, "blocked")
			continue
		}
		static.byClass[identities[i].ClassID] = simpleDescription(identities[i].ClassID)
	}

	s := NewScheduler(static, newFakeSource(), nullRuntime{})
	batch := s.Run(identities, Options{Workers: 8})
	results := Collect(batch)

	require.Len(t, results, total)
	assert.Equal(t, int64(total), batch.Done())

	seen := make(map[string]bool, total)
	failed := 0
	for _, r := range results {
		require.False(t, seen[r.Identity.ProgID], "duplicate result for %s", r.Identity.ProgID)
		seen[r.Identity.ProgID] = true
		if r.Err != nil {
			failed++
			assert.Equal(t, com.KindInstantiationFailed, r.Err.Kind)
		}
	}
	assert.Equal(t, total/failEvery, failed)
}

func TestEmptyBatch(t *testing.T) {
	s := NewScheduler(newFakeSource(), newFakeSource(), nullRuntime{})
	batch := s.Run(nil, Options{Workers: 4})

	assert.Empty(t, Collect(batch))
	assert.Equal(t, int64(0), batch.Total())
}

func TestWorkersAcquireOneContextEach(t *testing.T) {
	const total = 200
	identities := make([]com.ComponentIdentity, total)
	static := newFakeSource()
	for i := range identities {
		identities[i] = identityN(i)
		static.byClass[identities[i].ClassID] = simpleDescription(identities[i].ClassID)
	}

	api := &balancedRuntime{}
	s := NewScheduler(static, newFakeSource(), api)
	results := Collect(s.Run(identities, Options{Workers: 4}))

	require.Len(t, results, total)
	assert.Equal(t, int64(4), api.inits.Load())
	assert.Equal(t, api.inits.Load(), api.uninits.Load())
}

func TestRuntimeAcquireFailureStillEmitsAllResults(t *testing.T) {
	const total = 50
	identities := make([]com.ComponentIdentity, total)
	for i := range identities {
		identities[i] = identityN(i)
	}

	api := failingRuntime{}
	s := NewScheduler(newFakeSource(), nil, api)
	results := Collect(s.Run(identities, Options{Workers: 4}))

	require.Len(t, results, total)
	for _, r := range results {
		require.NotNil(t, r.Err)
		assert.Equal(t, com.KindRuntimeInitFailed, r.Err.Kind)
	}
}

type failingRuntime struct{}

func (failingRuntime) Initialize() error {
	return com.NewHResultError(com.KindRuntimeInitFailed, 0x8000FFFF, "no apartment")
}
func (failingRuntime) Uninitialize() {}

// gateSource blocks every Describe until released, signalling once the
// first call is in flight. Lets the test cancel at a known point.
type gateSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateSource() *gateSource {
	return &gateSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (s *gateSource) Describe(classID uuid.UUID) (*typelib.RawDescription, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return simpleDescription(classID), nil
}

func TestCancellationStillEmitsAllResults(t *testing.T) {
	const total = 500
	const workers = 2
	identities := make([]com.ComponentIdentity, total)
	for i := range identities {
		identities[i] = identityN(i)
	}

	static := newGateSource()
	s := NewScheduler(static, nil, nullRuntime{})
	batch := s.Run(identities, Options{Workers: workers})

	<-static.started
	batch.Cancel()
	close(static.release)
	results := Collect(batch)

	require.Len(t, results, total)
	cancelled := 0
	for _, r := range results {
		if r.Err != nil {
			cancelled++
		}
	}
	// at most one in-flight inspection per worker still completed
	assert.GreaterOrEqual(t, cancelled, total-workers)
}

func TestWorkerCountDefaultsAndCaps(t *testing.T) {
	identity := identityN(0)
	static := newFakeSource()
	static.byClass[identity.ClassID] = simpleDescription(identity.ClassID)

	api := &balancedRuntime{}
	s := NewScheduler(static, nil, api)

	// one identity caps the pool at one worker regardless of the request
	results := Collect(s.Run([]com.ComponentIdentity{identity}, Options{Workers: 16}))
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), api.inits.Load())
}

func TestMalformedDescriptionBecomesFailure(t *testing.T) {
	identity := identityN(0)
	static := newFakeSource()
	static.byClass[identity.ClassID] = &typelib.RawDescription{ClassID: identity.ClassID}

	s := NewScheduler(static, nil, nullRuntime{})
	results := Collect(s.Run([]com.ComponentIdentity{identity}, Options{Workers: 1}))

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, com.KindMalformedDescriptor, results[0].Err.Kind)
}
