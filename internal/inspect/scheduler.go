// Package inspect coordinates the two-path inspection protocol across a
// fixed pool of workers. Each worker pins its OS thread and owns exactly one
// runtime context for its lifetime; every identity yields exactly one
// result, failures included.
package inspect

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/typelib"
)

// Options configures one batch run.
type Options struct {
	// Workers is the pool size; 0 means the host's logical processor count.
	Workers int
	// AllowDynamic enables the instantiation fallback when the static path
	// reports NoTypeLibrary. Off by default: instantiating a component runs
	// its initialization code.
	AllowDynamic bool
}

// Scheduler owns the inspection capabilities shared by all workers. Static
// and Dynamic yield raw descriptors; Runtime provides per-thread runtime
// contexts. All three are interfaces so tests run without a real platform.
type Scheduler struct {
	Static  typelib.Source
	Dynamic typelib.Source
	Runtime com.RuntimeAPI
	Log     *log.Logger
}

func NewScheduler(static, dynamic typelib.Source, api com.RuntimeAPI) *Scheduler {
	return &Scheduler{Static: static, Dynamic: dynamic, Runtime: api, Log: log.Default()}
}

// Batch is a running inspection: a result stream plus progress counters.
// Results carries exactly one InspectionResult per scheduled identity, in
// completion order, and is closed when the last worker exits. Identity
// order is not preserved; callers re-sort by result identity if they care.
type Batch struct {
	Results <-chan com.InspectionResult

	total     int64
	done      atomic.Int64
	cancelled atomic.Bool
}

// Total is the number of identities scheduled.
func (b *Batch) Total() int64 { return b.total }

// Done is the number of results emitted so far; monotonically increasing.
func (b *Batch) Done() int64 { return b.done.Load() }

// Cancel asks workers to stop. Cooperative: the flag is checked between
// identities, never mid-call, so one in-flight inspection per worker may
// still complete. Cancelled identities are reported as cancelled failures
// so the batch still emits one result per input.
func (b *Batch) Cancelled() bool { return b.cancelled.Load() }
func (b *Batch) Cancel()         { b.cancelled.Store(true) }

/*
* Run starts the worker pool over the given identities.
*
* Per identity the protocol is strictly ordered: the static path first; on a
* NoTypeLibrary failure, and only that kind, the dynamic path if
* AllowDynamic is set; decode only after a non-failed resolve. Any failure
* is captured as data in the result, never aborting the batch.
*
* Each worker locks its OS thread and acquires one runtime context before
* its first identity, releasing it on exit. A worker whose context
* acquisition fails keeps draining the queue, reporting each of its
* identities as RuntimeInitFailed, so the one-result-per-identity contract
* holds no matter what.
*
* There is no timeout on the dynamic path: the platform offers no safe way
* to preempt a call into component code, so a hung component blocks its
* worker until process exit. That risk is inherent to the opt-in dynamic
* path and is accepted rather than papered over.
 */
func (s *Scheduler) Run(identities []com.ComponentIdentity, opts Options) *Batch {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(identities) && len(identities) > 0 {
		workers = len(identities)
	}

	results := make(chan com.InspectionResult, workers*2)
	batch := &Batch{Results: results, total: int64(len(identities))}

	queue := make(chan com.ComponentIdentity)
	go func() {
		for _, id := range identities {
			queue <- id
		}
		close(queue)
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			s.runWorker(worker, queue, results, batch, opts.AllowDynamic)
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return batch
}

func (s *Scheduler) runWorker(worker int, queue <-chan com.ComponentIdentity,
	results chan<- com.InspectionResult, batch *Batch, allowDynamic bool,
) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ctx, err := com.Acquire(s.Runtime)
	if err != nil {
		s.Log.Error("worker has no runtime context", "worker", worker, "err", err)
	} else {
		defer ctx.Release()
	}

	for identity := range queue {
		var result com.InspectionResult
		switch {
		case err != nil:
			result = com.Failure(identity, err)
		case batch.Cancelled():
			result = com.Failure(identity, com.NewError(com.KindUnknown, "inspection cancelled"))
		default:
			result = s.inspect(identity, allowDynamic)
		}
		if result.Err != nil {
			s.Log.Debug("inspection failed", "progid", identity.ProgID, "kind", result.Err.Kind)
		}
		results <- result
		batch.done.Add(1)
	}
}

func (s *Scheduler) inspect(identity com.ComponentIdentity, allowDynamic bool) com.InspectionResult {
	raw, err := s.Static.Describe(identity.ClassID)
	if err == nil {
		return decodeInto(identity, com.PathStatic, raw)
	}

	// dynamic fallback applies only to a missing type library; every other
	// static failure is terminal for this identity
	if com.KindOf(err) != com.KindNoTypeLibrary || !allowDynamic || s.Dynamic == nil {
		return com.Failure(identity, err)
	}

	raw, err = s.Dynamic.Describe(identity.ClassID)
	if err != nil {
		return com.Failure(identity, err)
	}
	return decodeInto(identity, com.PathDynamic, raw)
}

func decodeInto(identity com.ComponentIdentity, path com.ResolutionPath, raw *typelib.RawDescription) com.InspectionResult {
	surface, err := typelib.Decode(raw)
	if err != nil {
		return com.Failure(identity, err)
	}
	return com.Success(identity, path, surface)
}

// Collect drains the batch into a slice. Convenience for one-shot callers
// like the CLI exporter; interactive consumers read Results directly.
func Collect(batch *Batch) []com.InspectionResult {
	results := make([]com.InspectionResult, 0, batch.Total())
	for result := range batch.Results {
		results = append(results, result)
	}
	return results
}
