// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

// Options configures queue creation and algorithm selection.
type Options struct {
	// Producer constraint (determines queue type)
	singleProducer bool

	// Capacity (rounds up to next power of 2)
	capacity int
}

// Builder creates queues with fluent configuration.
//
// Builder provides a fluent API for configuring and creating queues.
// The builder selects the algorithm from the producer constraint:
// a single-producer declaration yields the SPMC queue with its plain
// submission index, anything else the CAS-claiming MPMC queue.
//
// Example:
//
//	// SPMC queue (one dispatcher goroutine feeds the workers)
//	q := jobq.BuildSPMC[Task](jobq.New(1024).SingleProducer())
//
//	// MPMC queue (default, submit from anywhere)
//	q := jobq.BuildMPMC[Task](jobq.New(4096))
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Capacity rounds up to the next power of 2.
// For example, capacity=4 results in actual capacity=4, capacity=1000
// results in actual capacity=1024.
//
// Panics if capacity < 2.
func New(capacity int) *Builder {
	if capacity < 2 {
		panic("jobq: capacity must be >= 2")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleProducer declares that only one goroutine will submit jobs.
// Enables the SPMC algorithm with a plain, uncontended submission index.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// Build creates a Queue[T] with automatic algorithm selection.
//
// Algorithm selection:
//
//	SingleProducer → SPMC (plain submission index)
//	Default        → MPMC (CAS-claimed submission index)
//
// For type-safe returns with concrete types, use:
//   - BuildSPMC[T](b) → *SPMC[T]
//   - BuildMPMC[T](b) → *MPMC[T]
func Build[T Runner](b *Builder) Queue[T] {
	if b.opts.singleProducer {
		return NewSPMC[T](b.opts.capacity)
	}
	return NewMPMC[T](b.opts.capacity)
}

// BuildSPMC creates an SPMC queue with compile-time type safety.
// Panics if builder is not configured with SingleProducer().
func BuildSPMC[T Runner](b *Builder) *SPMC[T] {
	if !b.opts.singleProducer {
		panic("jobq: BuildSPMC requires SingleProducer()")
	}
	return NewSPMC[T](b.opts.capacity)
}

// BuildMPMC creates an MPMC queue with compile-time type safety.
// Panics if builder has the single-producer constraint set.
func BuildMPMC[T Runner](b *Builder) *MPMC[T] {
	if b.opts.singleProducer {
		panic("jobq: BuildMPMC requires no constraints")
	}
	return NewMPMC[T](b.opts.capacity)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// cacheLineSize is the line size assumed for slot and counter layout.
// Almost all modern x86_64 processors (intel and amd); adjust here for
// 128-byte server cores.
const cacheLineSize = 64

// pad is cache line padding to prevent false sharing.
type pad [cacheLineSize]byte

// padShort is padding to fill a cache line after a 32-bit index field,
// keeping each counter alone on its line at a 64-byte offset.
type padShort [cacheLineSize - 4]byte
