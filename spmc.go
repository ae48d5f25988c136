// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SPMC is a single-producer multi-consumer bounded job queue.
//
// The single producer writes the submission index plainly; consumers use
// CAS to claim slots and fetch-add the completion counter. Per-slot
// 32-bit sequence numbers alternate slot ownership between the producer
// and the consumers lap by lap.
//
// Thread safety:
//   - TryAdd, Add: single producer goroutine only
//   - RunNext: any number of consumer goroutines
//   - ActiveCount: producer or observer goroutines (advisory)
//   - WaitIdle: producer goroutine
//
// Memory: n slots, each padded to at least one cache line.
type SPMC[T Runner] struct {
	_         pad
	head      uint32 // Submission index; producer-owned, plain access
	_         padShort
	tail      atomix.Uint32 // Claim index; consumers CAS
	_         padShort
	completed atomix.Uint32 // Finished count; consumers fetch-add
	_         padShort
	buffer    []spmcSlot[T]
	mask      uint32
	capacity  uint32
}

type spmcSlot[T Runner] struct {
	job      T
	sequence atomix.Uint32 // Lap/ownership state for this slot
	_        padShort      // Pad to cache line
}

// NewSPMC creates a new SPMC job queue.
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewSPMC[T Runner](capacity int) *SPMC[T] {
	if capacity < 2 {
		panic("jobq: capacity must be >= 2")
	}

	n := uint32(roundToPow2(capacity))
	q := &SPMC[T]{
		buffer:   make([]spmcSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}
	q.Init()

	return q
}

// Init resets the counters to zero and reseeds sequence[i] = i for every
// slot. The constructor already performs it; call it again only before
// first use of self-managed storage, or to reuse a queue once every
// consumer is quiescent.
func (q *SPMC[T]) Init() {
	q.head = 0
	q.tail.StoreRelaxed(0)
	q.completed.StoreRelaxed(0)
	for i := uint32(0); i < q.capacity; i++ {
		q.buffer[i].sequence.StoreRelaxed(i)
	}
}

// TryAdd places a copy of the job into the queue (single producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPMC[T]) TryAdd(job *T) error {
	h := q.head
	slot := &q.buffer[h&q.mask]

	// Pairs with the release in RunNext that hands the slot back on the
	// next lap.
	if slot.sequence.LoadAcquire() != h {
		// Slot not yet freed from the previous lap: queue is full.
		return ErrWouldBlock
	}

	slot.job = *job
	q.head = h + 1

	// Publish the job bytes and hand the slot to the consumers.
	// Pairs with the acquire in RunNext.
	slot.sequence.StoreRelease(h + 1)

	return nil
}

// Add places a copy of the job into the queue, spinning with a pause
// hint while the queue is full (single producer only).
func (q *SPMC[T]) Add(job *T) {
	sw := spin.Wait{}
	for q.TryAdd(job) != nil {
		sw.Once()
	}
}

// RunNext claims the next submitted job, runs it, and destroys it
// (multiple consumers safe).
// Returns ErrWouldBlock if no job was claimable at this instant.
func (q *SPMC[T]) RunNext() error {
	t := q.tail.LoadRelaxed()
	for {
		slot := &q.buffer[t&q.mask]

		// Pairs with the producer's release publishing the job bytes.
		seq := slot.sequence.LoadAcquire()
		diff := int32(seq - (t + 1))

		if diff < 0 {
			// Next slot not yet published.
			return ErrWouldBlock
		}
		if diff > 0 {
			// Stale view: another consumer advanced past this index.
			t = q.tail.LoadRelaxed()
			continue
		}

		// Claim the slot from competing consumers. Relaxed suffices on
		// both sides: job visibility was already established by the
		// acquire of sequence above.
		if q.tail.CompareAndSwapRelaxed(t, t+1) {
			slot.job.Run()
			var zero T
			slot.job = zero

			// Hand the slot back to the producer for the next lap.
			slot.sequence.StoreRelease(t + q.capacity)

			// Pairs with the acquire in WaitIdle.
			q.completed.AddAcqRel(1)
			return nil
		}
		t = q.tail.LoadRelaxed()
	}
}

// ActiveCount returns the number of jobs submitted but not yet finished.
// Advisory; call from the producer or an observer that tolerates skew.
func (q *SPMC[T]) ActiveCount() uint32 {
	return q.head - q.completed.LoadRelaxed()
}

// WaitIdle spins with a pause hint until every job submitted so far has
// finished. On return, all side effects of those jobs are visible to
// the caller (call from the producer; head cannot move during the loop).
func (q *SPMC[T]) WaitIdle() {
	sw := spin.Wait{}
	// Pairs with the release fetch-add of completed in RunNext.
	for q.head != q.completed.LoadAcquire() {
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *SPMC[T]) Cap() int {
	return int(q.capacity)
}
