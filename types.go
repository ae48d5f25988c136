// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

// Runner is the job contract. A job is a small value with a Run method;
// the queue copies it into a ring slot on submission and a consumer runs
// it in place after claiming the slot.
//
// Jobs should be small — ideally no larger than a cache line body
// (about 48 bytes) — and must not retain interior pointers into
// themselves, since the value is relocated into the slot by copy.
// After Run returns the slot copy is destroyed (zeroed), so any
// references the job held are released to the collector.
//
// A job that needs to mutate shared state does so through pointers or
// handles it carries:
//
//	type Increment struct {
//	    Counter *atomix.Uint64
//	}
//
//	func (j Increment) Run() { j.Counter.Add(1) }
type Runner interface {
	Run()
}

// Queue is the combined submission-dispatch interface for a job queue.
//
// Queue provides non-blocking submission (TryAdd) and dispatch (RunNext),
// blocking submission (Add), and quiescence operations (ActiveCount,
// WaitIdle). Both non-blocking operations return ErrWouldBlock when they
// cannot proceed (queue full, or no claimable job).
//
// Example:
//
//	q := jobq.NewMPMC[Increment](1024)
//
//	// Submit
//	job := Increment{Counter: &total}
//	if err := q.TryAdd(&job); err != nil {
//	    // Handle full queue
//	}
//
//	// Dispatch (typically from consumer goroutines)
//	if err := q.RunNext(); err == nil {
//	    // One job ran to completion
//	}
//
//	// Quiesce
//	q.WaitIdle()
type Queue[T Runner] interface {
	Submitter[T]
	Dispatcher
	Cap() int
}

// Submitter is the producer-side interface of a job queue.
//
// The job is passed by pointer to avoid copying large values twice; the
// queue stores a copy of the pointed-to value, so the original can be
// reused or modified after TryAdd returns.
type Submitter[T Runner] interface {
	// TryAdd places a copy of the job into the queue (non-blocking).
	// Returns nil on success, ErrWouldBlock if the queue is full.
	//
	// Thread safety depends on queue type:
	//   - SPMC: single producer only
	//   - MPMC: multiple producers safe, including an interrupt-style
	//     reentrant submission on the same thread
	TryAdd(job *T) error

	// Add places a copy of the job into the queue, spinning with a CPU
	// pause hint while the queue is full. Same thread safety as TryAdd.
	Add(job *T)
}

// Dispatcher is the consumer-side interface of a job queue.
//
// Dispatch order follows submission order: the consumer that claims
// logical index t runs the job submitted at logical index t. No
// ordering is guaranteed among the completions of concurrently running
// jobs.
type Dispatcher interface {
	// RunNext claims the next submitted job, runs it to completion, and
	// destroys it (non-blocking). Returns nil if a job was run,
	// ErrWouldBlock if nothing was claimable at this instant.
	//
	// Safe to call from any number of consumer goroutines on both
	// queue types.
	RunNext() error

	// ActiveCount returns the number of jobs in flight: submitted but
	// not yet finished. The count is advisory; it is not ordered
	// against concurrent submissions or completions.
	ActiveCount() uint32

	// WaitIdle spins with a CPU pause hint until every job submitted so
	// far has finished. On return, all side effects produced by those
	// jobs' Run methods are visible to the caller.
	//
	// Call from the producer thread (SPMC) or after producers have
	// quiesced (MPMC); a concurrent submitter can keep WaitIdle from
	// returning indefinitely.
	WaitIdle()
}
