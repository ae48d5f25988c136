// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMC is a multi-producer multi-consumer bounded job queue.
//
// Producers linearize submissions by CAS on the submission index, then
// write the slot body and publish it through the slot sequence. Because
// the index claim precedes the body write and consumers gate on the
// sequence, the submission path is also safe against reentrancy: an
// interrupt-style handler that submits from the same thread between the
// claim and the publish observes a fresh index and a disjoint slot.
//
// Consumers are identical to SPMC: CAS the claim index, run the job,
// hand the slot back for the next lap, fetch-add the completion counter.
//
// Thread safety:
//   - TryAdd, Add: any number of producer goroutines
//   - RunNext: any number of consumer goroutines
//   - ActiveCount, WaitIdle: any goroutine (WaitIdle is meaningful once
//     producers have quiesced)
//
// Memory: n slots, each padded to at least one cache line.
type MPMC[T Runner] struct {
	_         pad
	head      atomix.Uint32 // Submission index; producers CAS
	_         padShort
	tail      atomix.Uint32 // Claim index; consumers CAS
	_         padShort
	completed atomix.Uint32 // Finished count; consumers fetch-add
	_         padShort
	buffer    []mpmcSlot[T]
	mask      uint32
	capacity  uint32
}

type mpmcSlot[T Runner] struct {
	job      T
	sequence atomix.Uint32 // Lap/ownership state for this slot
	_        padShort      // Pad to cache line
}

// NewMPMC creates a new MPMC job queue.
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewMPMC[T Runner](capacity int) *MPMC[T] {
	if capacity < 2 {
		panic("jobq: capacity must be >= 2")
	}

	n := uint32(roundToPow2(capacity))
	q := &MPMC[T]{
		buffer:   make([]mpmcSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}
	q.Init()

	return q
}

// Init resets the counters to zero and reseeds sequence[i] = i for every
// slot. The constructor already performs it; call it again only before
// first use of self-managed storage, or to reuse a queue once every
// producer and consumer is quiescent.
func (q *MPMC[T]) Init() {
	q.head.StoreRelaxed(0)
	q.tail.StoreRelaxed(0)
	q.completed.StoreRelaxed(0)
	for i := uint32(0); i < q.capacity; i++ {
		q.buffer[i].sequence.StoreRelaxed(i)
	}
}

// TryAdd places a copy of the job into the queue (multiple producers
// safe, including reentrant submission from the same thread).
// Returns ErrWouldBlock if the queue is full.
func (q *MPMC[T]) TryAdd(job *T) error {
	h := q.head.LoadRelaxed()
	for {
		slot := &q.buffer[h&q.mask]

		// Pairs with the release in RunNext that hands the slot back on
		// the next lap.
		seq := slot.sequence.LoadAcquire()
		diff := int32(seq - h)

		if diff < 0 {
			// Slot still held by a consumer lap: queue is full.
			return ErrWouldBlock
		}
		if diff > 0 {
			// Another producer advanced past this index.
			h = q.head.LoadRelaxed()
			continue
		}

		// Claim the index before writing the body. Consumers stay gated
		// on the sequence until the publish below, so no half-written
		// slot is ever observable. Relaxed suffices: the acquire of
		// sequence above already ordered this producer's view.
		if q.head.CompareAndSwapRelaxed(h, h+1) {
			slot.job = *job

			// Publish the job bytes and hand the slot to the consumers.
			// Pairs with the acquire in RunNext.
			slot.sequence.StoreRelease(h + 1)
			return nil
		}
		h = q.head.LoadRelaxed()
	}
}

// Add places a copy of the job into the queue, spinning with a pause
// hint while the queue is full.
func (q *MPMC[T]) Add(job *T) {
	sw := spin.Wait{}
	for q.TryAdd(job) != nil {
		sw.Once()
	}
}

// RunNext claims the next submitted job, runs it, and destroys it
// (multiple consumers safe).
// Returns ErrWouldBlock if no job was claimable at this instant.
func (q *MPMC[T]) RunNext() error {
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

			// Hand the slot back to the producers for the next lap.
			slot.sequence.StoreRelease(t + q.capacity)

			// Pairs with the acquire in WaitIdle.
			q.completed.AddAcqRel(1)
			return nil
		}
		t = q.tail.LoadRelaxed()
	}
}

// ActiveCount returns the number of jobs submitted but not yet finished.
// Advisory; not ordered against concurrent submissions or completions.
func (q *MPMC[T]) ActiveCount() uint32 {
	return q.head.LoadRelaxed() - q.completed.LoadRelaxed()
}

// WaitIdle spins with a pause hint until every job submitted so far has
// finished. On return, all side effects of those jobs are visible to
// the caller. A concurrent submitter can keep the loop from exiting;
// call after producers have quiesced.
func (q *MPMC[T]) WaitIdle() {
	sw := spin.Wait{}
	// Pairs with the release fetch-add of completed in RunNext.
	for q.head.LoadRelaxed() != q.completed.LoadAcquire() {
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMC[T]) Cap() int {
	return int(q.capacity)
}
