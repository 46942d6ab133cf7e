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

package progress

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

type spanKeyType string

var spanKeyName = spanKeyType(uuid.New().String())

type Status string

const (
	StatusPending  Status = "Pending"
	StatusComplete Status = "Complete"
	StatusRunning  Status = "Running"
	StatusFailed   Status = "Failed"
)

type Span struct {
	name     string
	status   Status
	total    int
	count    atomic.Int64
	err      error
	start    time.Time
	finish   time.Time
	children sync.Map
}

// Add advances the span. It is safe to call from concurrent workers.
func (s *Span) Add(n int) {
	s.count.Add(int64(n))
}

func (s *Span) End() {
	s.status = StatusComplete
	s.count.Store(int64(s.total))
	s.finish = time.Now()
}

func (s *Span) Error(err error) {
	s.status = StatusFailed
	s.err = err
}

func (s *Span) Count() int {
	return int(s.count.Load())
}

// Start creates a span nested under the span carried by ctx, if any.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	childSpan := &Span{
		name:   name,
		status: StatusRunning,
		total:  total,
		start:  time.Now(),
	}
	if ctx == nil {
		return nil, childSpan
	}
	span, ok := ctx.Value(spanKeyName).(*Span)
	if !ok {
		return context.WithValue(ctx, spanKeyName, childSpan), childSpan
	}
	span.children.Store(name, childSpan)
	return context.WithValue(ctx, spanKeyName, childSpan), childSpan
}
