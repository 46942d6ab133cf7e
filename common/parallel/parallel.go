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

// Block is a contiguous range of row indexes owned by one worker.
type Block struct {
	Begin int
	End   int
}

// Len returns the number of rows in the block.
func (b Block) Len() int {
	return b.End - b.Begin
}

// Blocks partitions [0, count) into contiguous non-overlapping ranges, one
// per worker. Every worker owns count/workers rows; the last worker
// additionally absorbs the remainder. Blocks covering zero rows are kept so
// that block i always belongs to worker i.
func Blocks(count, workers int) []Block {
	if workers < 1 {
		workers = 1
	}
	gap := count / workers
	blocks := make([]Block, workers)
	for i := 0; i < workers; i++ {
		blocks[i] = Block{Begin: i * gap, End: (i + 1) * gap}
	}
	blocks[workers-1].End += count % workers
	return blocks
}

// BlockRange runs worker over every block of [0, count) on the pool and
// blocks until all ranges have been processed. workerId identifies the block
// so that workers can use preallocated per-worker buffers.
func BlockRange(pool *Pool, count int, worker func(workerId, begin, end int)) {
	blocks := Blocks(count, pool.Workers())
	for workerId, block := range blocks {
		workerId, block := workerId, block
		pool.Run(func() {
			worker(workerId, block.Begin, block.End)
		})
	}
	pool.Wait()
}
