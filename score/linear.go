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
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/model"
)

// linearScore is the plain linear model: bias + Σ w_i·x_i.
type linearScore struct {
	learningRate float32
	reguLambda   float32
}

func newLinearScore(hp model.HyperParam) Score {
	return &linearScore{
		learningRate: hp.LearningRate,
		reguLambda:   hp.ReguLambda,
	}
}

func (s *linearScore) Name() string {
	return model.ScoreLinear
}

func (s *linearScore) CalcScore(row data.SparseRow, m *model.Model, norm float32) float32 {
	score := m.Bias
	for _, node := range row {
		score += m.W[node.Feature] * node.Value * norm
	}
	return score
}

func (s *linearScore) CalcGrad(row data.SparseRow, m *model.Model, pg, norm float32) {
	adagrad(&m.Bias, &m.BiasCache, pg, s.learningRate)
	for _, node := range row {
		g := s.reguLambda*m.W[node.Feature] + pg*node.Value*norm
		adagrad(&m.W[node.Feature], &m.WCache[node.Feature], g, s.learningRate)
	}
}
