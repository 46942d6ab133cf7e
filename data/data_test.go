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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLibSVM(t *testing.T) {
	text := `# comment line
1 0:1 2:0.5
-1 1:2

0 0:1 1:1 2:1
`
	matrix, err := Parse(strings.NewReader(text), FormatLibSVM)
	require.NoError(t, err)
	assert.Equal(t, 3, matrix.Count())
	assert.Equal(t, []float32{1, -1, 0}, matrix.Y)
	assert.Equal(t, SparseRow{{Feature: 0, Value: 1}, {Feature: 2, Value: 0.5}}, matrix.Rows[0])
	assert.False(t, matrix.HasField)
	assert.Equal(t, 3, matrix.NumFeature())
	// norm = 1 / (1 + 0.25)
	assert.InDelta(t, 0.8, matrix.Norms[0], 1e-6)
	assert.InDelta(t, 0.25, matrix.Norms[1], 1e-6)
}

func TestParseLibFFM(t *testing.T) {
	text := "1 0:0:1 1:3:2\n-1 2:1:0.5\n"
	matrix, err := Parse(strings.NewReader(text), FormatLibFFM)
	require.NoError(t, err)
	assert.Equal(t, 2, matrix.Count())
	assert.True(t, matrix.HasField)
	assert.Equal(t, 4, matrix.NumFeature())
	assert.Equal(t, 3, matrix.NumField())
	assert.Equal(t, SparseRow{
		{Feature: 0, Field: 0, Value: 1},
		{Feature: 3, Field: 1, Value: 2},
	}, matrix.Rows[0])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("x 0:1\n"), FormatLibSVM)
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("1 0:1:1\n"), FormatLibSVM)
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("1 0:1\n"), FormatLibFFM)
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()
	svmPath := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(svmPath, []byte("1 0:1 1:2\n"), 0o644))
	format, err := DetectFormat(svmPath)
	require.NoError(t, err)
	assert.Equal(t, FormatLibSVM, format)

	ffmPath := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(ffmPath, []byte("1 0:0:1 1:1:2\n"), 0o644))
	format, err = DetectFormat(ffmPath)
	require.NoError(t, err)
	assert.Equal(t, FormatLibFFM, format)

	badPath := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(badPath, []byte("garbage\n"), 0o644))
	_, err = DetectFormat(badPath)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 0:1\n0 1:1\n"), 0o644))
	matrix, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, matrix.Count())
	assert.Equal(t, 1, matrix.PositiveCount())
}

func TestAppendZeroRow(t *testing.T) {
	matrix := new(DMatrix)
	matrix.Append(1, SparseRow{})
	assert.Equal(t, float32(1), matrix.Norms[0])
}

func newTestMatrix(n int) *DMatrix {
	matrix := new(DMatrix)
	for i := 0; i < n; i++ {
		matrix.Append(float32(i), SparseRow{{Feature: uint32(i), Value: 1}})
	}
	return matrix
}

func TestSplit(t *testing.T) {
	matrix := newTestMatrix(100)
	trainSet, testSet := matrix.Split(0.2, 42)
	assert.Equal(t, 80, trainSet.Count())
	assert.Equal(t, 20, testSet.Count())

	seen := make(map[float32]bool)
	for _, y := range append(append([]float32{}, trainSet.Y...), testSet.Y...) {
		assert.False(t, seen[y])
		seen[y] = true
	}
	assert.Len(t, seen, 100)
}

func TestKFold(t *testing.T) {
	matrix := newTestMatrix(10)
	folds := matrix.KFold(3, 7)
	assert.Len(t, folds, 3)

	testCount := make(map[float32]int)
	for _, fold := range folds {
		assert.Equal(t, 10, fold.A.Count()+fold.B.Count())
		for _, y := range fold.B.Y {
			testCount[y]++
		}
	}
	// every row is held out exactly once
	assert.Len(t, testCount, 10)
	for _, c := range testCount {
		assert.Equal(t, 1, c)
	}
	assert.Panics(t, func() { matrix.KFold(1, 7) })
}

func TestInMemoryReader(t *testing.T) {
	matrix := newTestMatrix(10)

	// whole set in one batch
	reader := NewInMemoryReader(matrix, 0)
	batch := new(DMatrix)
	assert.Equal(t, 10, reader.Samples(batch))
	assert.Equal(t, 0, reader.Samples(batch))
	reader.Reset()
	assert.Equal(t, 10, reader.Samples(batch))

	// batched with a short tail
	reader = NewInMemoryReader(matrix, 4)
	reader.Reset()
	var sizes []int
	total := 0
	for {
		n := reader.Samples(batch)
		if n == 0 {
			break
		}
		sizes = append(sizes, n)
		total += n
	}
	assert.Equal(t, []int{4, 4, 2}, sizes)
	assert.Equal(t, 10, total)
}
