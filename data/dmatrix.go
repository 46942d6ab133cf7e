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

import (
	"modernc.org/mathutil"
)

// Node is one nonzero entry of a sparse row. Field is meaningful only for
// field-aware models and stays zero otherwise.
type Node struct {
	Feature uint32
	Field   uint32
	Value   float32
}

// SparseRow is the ordered nonzero entries of one sample.
type SparseRow []Node

// DMatrix is an in-memory batch of samples stored as parallel arrays of
// labels and sparse rows. The training core only reads a DMatrix; it is
// rebuilt by the Reader for every batch.
type DMatrix struct {
	Y        []float32
	Rows     []SparseRow
	Norms    []float32
	HasField bool
	// maximum seen indexes, used to size models from data
	MaxFeature uint32
	MaxField   uint32
}

// Count returns the number of samples.
func (m *DMatrix) Count() int {
	if len(m.Y) != len(m.Rows) {
		panic("data: len(m.Y) != len(m.Rows)")
	}
	if len(m.Norms) != len(m.Rows) {
		panic("data: len(m.Norms) != len(m.Rows)")
	}
	return len(m.Rows)
}

// Append adds one sample. The instance-wise norm factor 1/Σx² is computed
// here so that scoring never touches the raw squared sum again.
func (m *DMatrix) Append(label float32, row SparseRow) {
	var squaredSum float32
	for _, node := range row {
		squaredSum += node.Value * node.Value
		m.MaxFeature = mathutil.MaxUint32(m.MaxFeature, node.Feature)
		if node.Field > 0 {
			m.HasField = true
			m.MaxField = mathutil.MaxUint32(m.MaxField, node.Field)
		}
	}
	norm := float32(1)
	if squaredSum > 0 {
		norm = 1 / squaredSum
	}
	m.Y = append(m.Y, label)
	m.Rows = append(m.Rows, row)
	m.Norms = append(m.Norms, norm)
}

// Reset empties the matrix but keeps the allocated capacity.
func (m *DMatrix) Reset() {
	m.Y = m.Y[:0]
	m.Rows = m.Rows[:0]
	m.Norms = m.Norms[:0]
}

// NumFeature returns the feature count implied by the matrix (largest index
// plus one).
func (m *DMatrix) NumFeature() int {
	if len(m.Rows) == 0 {
		return 0
	}
	return int(m.MaxFeature) + 1
}

// NumField returns the field count implied by the matrix.
func (m *DMatrix) NumField() int {
	if !m.HasField {
		return 0
	}
	return int(m.MaxField) + 1
}

// PositiveCount returns the number of samples with positive labels.
func (m *DMatrix) PositiveCount() (count int) {
	for _, y := range m.Y {
		if y > 0 {
			count++
		}
	}
	return
}
