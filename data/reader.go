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

package data

// Reader yields batches of samples. Reset rewinds to the first batch;
// Samples rebuilds batch with the next chunk and returns the number of rows
// written, zero when exhausted.
type Reader interface {
	Reset()
	Samples(batch *DMatrix) int
}

// InMemoryReader serves batches out of a fully loaded DMatrix. Batches share
// the underlying rows with the source matrix, so they are valid only until
// the next Samples call.
type InMemoryReader struct {
	matrix    *DMatrix
	batchSize int
	cursor    int
}

// NewInMemoryReader creates a reader over matrix. A non-positive batchSize
// yields the whole matrix as a single batch.
func NewInMemoryReader(matrix *DMatrix, batchSize int) *InMemoryReader {
	if batchSize <= 0 {
		batchSize = matrix.Count()
	}
	return &InMemoryReader{matrix: matrix, batchSize: batchSize}
}

// Reset rewinds the reader to the first batch.
func (r *InMemoryReader) Reset() {
	r.cursor = 0
}

// Samples fills batch with the next chunk of rows.
func (r *InMemoryReader) Samples(batch *DMatrix) int {
	if r.cursor >= r.matrix.Count() {
		return 0
	}
	end := r.cursor + r.batchSize
	if end > r.matrix.Count() {
		end = r.matrix.Count()
	}
	batch.Y = r.matrix.Y[r.cursor:end]
	batch.Rows = r.matrix.Rows[r.cursor:end]
	batch.Norms = r.matrix.Norms[r.cursor:end]
	batch.HasField = r.matrix.HasField
	batch.MaxFeature = r.matrix.MaxFeature
	batch.MaxField = r.matrix.MaxField
	count := end - r.cursor
	r.cursor = end
	return count
}

// Matrix returns the backing matrix.
func (r *InMemoryReader) Matrix() *DMatrix {
	return r.matrix
}
