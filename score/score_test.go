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

package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flash-ml/flash/common/floats"
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/model"
)

func TestRegistry(t *testing.T) {
	hp := model.NewHyperParam()
	hp.NumFeature = 1
	assert.Equal(t, []string{"ffm", "fm", "linear"}, Names())
	for _, name := range Names() {
		s := New(name, hp)
		require.NotNil(t, s)
		assert.Equal(t, name, s.Name())
	}
	assert.Nil(t, New("deep", hp))
	assert.Nil(t, New("", hp))
}

func unitRow(n int) data.SparseRow {
	row := make(data.SparseRow, n)
	for i := range row {
		row[i] = data.Node{Feature: uint32(i), Field: uint32(i), Value: 1}
	}
	return row
}

func TestLinearScore(t *testing.T) {
	hp := model.NewHyperParam()
	hp.NumFeature = 3
	m := model.NewModel(hp)
	floats.Fill(m.W, 2)
	s := New(model.ScoreLinear, hp)

	assert.Equal(t, float32(6), s.CalcScore(unitRow(3), m, 1))
	// empty row falls back to the bias
	m.Bias = 0.5
	assert.Equal(t, float32(0.5), s.CalcScore(data.SparseRow{}, m, 1))
}

func TestFMScore(t *testing.T) {
	hp := model.NewHyperParam()
	hp.ScoreFunc = model.ScoreFM
	hp.NumFeature = 3
	hp.NumK = 24
	m := model.NewModel(hp)
	floats.Fill(m.W, 2)
	floats.Fill(m.V, 1)
	s := New(model.ScoreFM, hp)

	// linear term 6 plus 24 per feature pair
	assert.InDelta(t, 78, s.CalcScore(unitRow(3), m, 1), 1e-3)
	assert.InDelta(t, m.Bias, s.CalcScore(data.SparseRow{}, m, 1), 1e-6)
}

func TestFFMScore(t *testing.T) {
	hp := model.NewHyperParam()
	hp.ScoreFunc = model.ScoreFFM
	hp.NumFeature = 3
	hp.NumField = 3
	hp.NumK = 24
	m := model.NewModel(hp)
	floats.Fill(m.W, 2)
	floats.Fill(m.V, 1)
	s := New(model.ScoreFFM, hp)

	assert.InDelta(t, 78, s.CalcScore(unitRow(3), m, 1), 1e-3)
}

func TestFFMFieldOutOfRange(t *testing.T) {
	hp := model.NewHyperParam()
	hp.ScoreFunc = model.ScoreFFM
	hp.NumFeature = 2
	hp.NumField = 1
	hp.NumK = 2
	m := model.NewModel(hp)
	s := New(model.ScoreFFM, hp)

	row := data.SparseRow{{Feature: 0, Field: 0, Value: 1}, {Feature: 1, Field: 5, Value: 1}}
	assert.Panics(t, func() { s.CalcScore(row, m, 1) })
	assert.Panics(t, func() { s.CalcGrad(row, m, 1, 1) })
}

// A gradient step with a positive residual must lower the score on the same
// row, for every score function.
func TestCalcGradDescends(t *testing.T) {
	for _, name := range Names() {
		hp := model.NewHyperParam()
		hp.ScoreFunc = name
		hp.NumFeature = 3
		hp.NumField = 3
		hp.NumK = 4
		m := model.NewModel(hp)
		s := New(name, hp)
		row := unitRow(3)

		before := s.CalcScore(row, m, 1)
		s.CalcGrad(row, m, 1, 1)
		after := s.CalcScore(row, m, 1)
		assert.Less(t, after, before, name)
	}
}

// AdaGrad shrinks the effective step: repeating the same gradient moves the
// weight by less each time.
func TestCalcGradStepDecays(t *testing.T) {
	hp := model.NewHyperParam()
	hp.NumFeature = 1
	m := model.NewModel(hp)
	s := New(model.ScoreLinear, hp)
	row := data.SparseRow{{Feature: 0, Value: 1}}

	var steps []float32
	prev := m.W[0]
	for i := 0; i < 3; i++ {
		s.CalcGrad(row, m, 1, 1)
		steps = append(steps, prev-m.W[0])
		prev = m.W[0]
	}
	assert.Greater(t, steps[0], steps[1])
	assert.Greater(t, steps[1], steps[2])
}
