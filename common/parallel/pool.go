// Copyright 2024 flash Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"sync"

	"go.uber.org/zap"

	"github.com/flash-ml/flash/base/log"
)

// Pool is a fixed-size worker pool. Workers are spawned once at creation and
// reused for every task until Close. Run enqueues a task, Wait blocks until
// all tasks enqueued since the previous Wait have finished.
//
// A panic inside a task is fatal: it is logged with its stack and re-raised
// from Wait in the caller's goroutine. An invariant violation in a worker
// must terminate the run; recovering and moving on would drop the worker's
// remaining rows and keep training on a partially updated model.
type Pool struct {
	tasks   chan func()
	pending sync.WaitGroup
	closed  sync.WaitGroup
	workers int

	mu    sync.Mutex
	fatal any
}

// NewPool creates a pool with the given number of workers. A non-positive
// count falls back to a single worker.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks:   make(chan func(), workers),
		workers: workers,
	}
	p.closed.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.closed.Done()
			for task := range p.tasks {
				p.runTask(task)
			}
		}()
	}
	return p
}

func (p *Pool) runTask(task func()) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Logger().Error("worker panicked",
				zap.Any("panic", r), zap.Stack("stack"))
			p.mu.Lock()
			if p.fatal == nil {
				p.fatal = r
			}
			p.mu.Unlock()
		}
	}()
	task()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Run enqueues a task.
func (p *Pool) Run(task func()) {
	p.pending.Add(1)
	p.tasks <- task
}

// Wait blocks until all enqueued tasks have finished, then re-raises the
// first panic raised by any of them.
func (p *Pool) Wait() {
	p.pending.Wait()
	p.mu.Lock()
	r := p.fatal
	p.fatal = nil
	p.mu.Unlock()
	if r != nil {
		panic(r)
	}
}

// Close shuts the pool down after outstanding tasks complete.
func (p *Pool) Close() {
	p.pending.Wait()
	close(p.tasks)
	p.closed.Wait()
}
