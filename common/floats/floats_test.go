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

package floats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroAndFill(t *testing.T) {
	a := []float32{1, 2, 3}
	Zero(a)
	assert.Equal(t, []float32{0, 0, 0}, a)
	Fill(a, 7)
	assert.Equal(t, []float32{7, 7, 7}, a)
}

func TestMulConst(t *testing.T) {
	a := []float32{1, 2, 3}
	MulConst(a, 2)
	assert.Equal(t, []float32{2, 4, 6}, a)

	dst := []float32{1, 1, 1}
	MulConstAdd(a, 10, dst)
	assert.Equal(t, []float32{21, 41, 61}, dst)
	assert.Panics(t, func() { MulConstAdd(a, 1, []float32{1}) })
}

func TestDot(t *testing.T) {
	assert.Equal(t, float32(32), Dot([]float32{1, 2, 3}, []float32{4, 5, 6}))
	assert.Panics(t, func() { Dot([]float32{1}, []float32{1, 2}) })
}

func TestSumMeanStdDev(t *testing.T) {
	a := []float32{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, float32(40), Sum(a))
	assert.Equal(t, float32(5), Mean(a))
	assert.InDelta(t, 2.138, StdDev(a), 1e-3)
}
