// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package jobq provides bounded lock-free job queues.
//
// A job queue accepts small job values from producer goroutines,
// dispatches them across any number of consumer goroutines in
// submission order, and answers the quiescence question "has everything
// submitted so far finished?". Two variants are offered:
//
//   - SPMC: Single-Producer Multi-Consumer
//   - MPMC: Multi-Producer Multi-Consumer
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := jobq.NewSPMC[Task](1024)
//	q := jobq.NewMPMC[Task](4096)
//
// Builder API selects the algorithm from the producer constraint:
//
//	q := jobq.Build[Task](jobq.New(1024).SingleProducer())  // → SPMC
//	q := jobq.Build[Task](jobq.New(1024))                   // → MPMC
//
// # Basic Usage
//
// A job is any small value with a Run method (the [Runner] contract):
//
//	type Accumulate struct {
//	    Delta uint64
//	    Total *atomix.Uint64
//	}
//
//	func (j Accumulate) Run() { j.Total.Add(j.Delta) }
//
// Both queues share the same surface:
//
//	q := jobq.NewMPMC[Accumulate](1024)
//
//	// Submit (non-blocking)
//	job := Accumulate{Delta: 3, Total: &total}
//	if err := q.TryAdd(&job); jobq.IsWouldBlock(err) {
//	    // Queue is full - handle backpressure
//	}
//
//	// Or submit spinning until a slot frees up
//	q.Add(&job)
//
//	// Dispatch (non-blocking, from any consumer goroutine)
//	if err := q.RunNext(); jobq.IsWouldBlock(err) {
//	    // Nothing claimable right now - consider pausing
//	}
//
//	// Quiesce: returns once every submitted job has finished, with
//	// all of their side effects visible to the caller
//	q.WaitIdle()
//
// # Common Patterns
//
// Work Distribution (SPMC):
//
//	// Single dispatcher → Multiple workers
//	q := jobq.NewSPMC[Task](1024)
//
//	// Multiple consumers (workers)
//	for range numWorkers {
//	    go func() {
//	        backoff := iox.Backoff{}
//	        for {
//	            if q.RunNext() == nil {
//	                backoff.Reset()
//	                continue
//	            }
//	            backoff.Wait()
//	        }
//	    }()
//	}
//
//	// Single producer (dispatcher)
//	for task := range tasks {
//	    q.Add(&task)
//	}
//	q.WaitIdle()
//
// Worker Pool (MPMC), using the bundled [Pool] consumer host:
//
//	q := jobq.NewMPMC[Task](4096)
//	p := jobq.NewPool(q, numWorkers)
//	p.Start()
//
//	// Submit jobs from anywhere
//	q.Add(&task)
//
//	q.WaitIdle()
//	p.Stop()
//
// # Algorithm
//
// Both variants are sequence-slot bounded rings (the design usually
// attributed to Vyukov). Each slot carries a 32-bit sequence encoding
// its lap and ownership: sequence == i+k·n means slot i is writable on
// lap k, sequence == i+k·n+1 means it holds a job ready to run. A
// producer stamps the slot body and release-stores the next sequence; a
// consumer acquire-loads the sequence, claims the slot by CAS on the
// claim index, runs the job in place, destroys it, and release-stores
// the sequence one lap ahead, returning the slot to the producer side.
// A completion counter, fetch-added after each run, lets WaitIdle spin
// until submissions and completions meet.
//
// SPMC differs only on the submission side: the single producer owns
// the submission index outright and writes it plainly. MPMC producers
// claim the index by CAS before writing the body; since consumers gate
// on the slot sequence, a submission that interrupts another mid-write
// (as an interrupt handler on the producer's core may) lands on a
// disjoint slot and cannot observe a half-written one.
//
// All three counters and every slot are padded to their own cache
// lines, so producer-side polling of the completion counter does not
// bounce the consumer-owned claim line and vice versa.
//
// The algorithm is lock-free, not wait-free: no goroutine's failure to
// be scheduled blocks another's independent progress, but a slow
// consumer delays producers once the ring fills. There are no locks,
// no allocations, and no system calls on the submission or dispatch
// paths; all waiting is cooperative spinning with a CPU pause hint.
//
// # Error Handling
//
// Queues return [ErrWouldBlock] when operations cannot proceed. This
// error is sourced from [code.hybscloud.com/iox] for ecosystem
// consistency and is a control flow signal, never a failure:
//
//	jobq.IsWouldBlock(err)  // true if queue full / nothing claimable
//	jobq.IsSemantic(err)    // true if control flow signal
//	jobq.IsNonFailure(err)  // true if nil or ErrWouldBlock
//
// Misuse — capacity below 2, a second producer submitting to an SPMC
// queue — is a contract violation, not a runtime condition: the former
// panics at construction, the latter is undefined behavior.
//
// # Capacity and Counts
//
// Capacity rounds up to the next power of 2; minimum capacity is 2.
// ActiveCount (submissions minus completions, with unsigned wrap) is
// advisory only. All indices are 32-bit and wrap; readiness checks use
// the signed difference of sequences, so wrap-around is handled
// uniformly.
//
// # Thread Safety
//
// All queue operations are safe within their access pattern
// constraints: SPMC admits one producer goroutine, MPMC any number;
// both admit any number of consumers. Violating the constraints (two
// producers on SPMC) causes undefined behavior including data
// corruption.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships
// established through atomic memory orderings on separate variables.
// The queues protect the non-atomic slot body with acquire-release
// sequence numbers; the algorithms are correct, but the detector may
// report false positives. Concurrent tests skip themselves when
// [RaceEnabled] is true, and the concurrent examples are excluded via
// //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause loops, and
// [github.com/phuslu/log] for pool lifecycle logging (never on the
// submission or dispatch paths).
package jobq
