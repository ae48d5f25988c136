// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq_test

import (
	"runtime"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/jobq"
)

// TestPoolDrains verifies that a started pool consumes a burst of
// submissions and that WaitIdle/Stop sequencing leaves nothing behind.
func TestPoolDrains(t *testing.T) {
	if jobq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	const totalJobs = 10000

	var counter atomix.Uint64
	q := jobq.NewMPMC[countJob](256)
	p := jobq.NewPool(q, 4)
	p.Start()

	for range totalJobs {
		j := countJob{counter: &counter}
		q.Add(&j)
	}
	q.WaitIdle()
	p.Stop()

	if got := counter.Load(); got != totalJobs {
		t.Fatalf("completions: got %d, want %d", got, totalJobs)
	}
	if got := q.ActiveCount(); got != 0 {
		t.Fatalf("ActiveCount: got %d, want 0", got)
	}
}

// TestPoolStopIdle verifies Stop returns promptly on an idle pool and
// that a stopped pool can be started again.
func TestPoolStopIdle(t *testing.T) {
	if jobq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	var counter atomix.Uint64
	q := jobq.NewSPMC[countJob](8)
	p := jobq.NewPool(q, 2)

	p.Start()
	p.Stop()

	// Restart and do real work
	p.Start()
	for range 100 {
		j := countJob{counter: &counter}
		q.Add(&j)
	}
	q.WaitIdle()
	p.Stop()

	if got := counter.Load(); got != 100 {
		t.Fatalf("completions: got %d, want %d", got, 100)
	}
}

// TestPoolWorkerCount verifies the default worker sizing.
func TestPoolWorkerCount(t *testing.T) {
	q := jobq.NewMPMC[nopJob](8)

	if got := jobq.NewPool(q, 3).Workers(); got != 3 {
		t.Fatalf("Workers: got %d, want 3", got)
	}
	if got := jobq.NewPool(q, 0).Workers(); got != runtime.GOMAXPROCS(0) {
		t.Fatalf("default Workers: got %d, want %d", got, runtime.GOMAXPROCS(0))
	}
}
