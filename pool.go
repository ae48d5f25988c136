// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

import (
	"runtime"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/phuslu/log"
)

// Pool hosts consumer goroutines over a Dispatcher.
//
// Each worker loops RunNext, backing off adaptively while nothing is
// claimable. The queue itself never blocks or yields; the pool is the
// caller-owned loop that turns its non-blocking dispatch into a running
// worker set, and the only place a goroutine parks.
//
// Example:
//
//	q := jobq.NewMPMC[Task](4096)
//	p := jobq.NewPool(q, 8)
//	p.Start()
//
//	// ... submit from anywhere ...
//	q.Add(&task)
//
//	q.WaitIdle()
//	p.Stop()
type Pool struct {
	dispatcher Dispatcher
	workers    int
	stop       atomix.Bool
	wg         sync.WaitGroup
}

// NewPool creates a pool of the given number of workers over d.
// workers <= 0 selects one worker per usable CPU.
func NewPool(d Dispatcher, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{dispatcher: d, workers: workers}
}

// Start launches the worker goroutines. Start may be called again after
// Stop has returned; the pool is otherwise not restartable mid-flight.
func (p *Pool) Start() {
	p.stop.Store(false)
	for i := range p.workers {
		p.wg.Add(1)
		go p.run(i)
	}
	log.Debug().Msgf("jobq: pool started %d workers", p.workers)
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	backoff := iox.Backoff{}
	for !p.stop.LoadAcquire() {
		if p.dispatcher.RunNext() == nil {
			backoff.Reset()
			continue
		}
		backoff.Wait()
	}
	log.Debug().Msgf("jobq: worker %d stopped", id)
}

// Stop signals the workers and joins them. Jobs already claimed run to
// completion; unclaimed jobs stay in the queue. Pair with WaitIdle
// before Stop to drain instead.
func (p *Pool) Stop() {
	p.stop.StoreRelease(true)
	p.wg.Wait()
}

// Workers returns the number of workers the pool launches.
func (p *Pool) Workers() int {
	return p.workers
}
