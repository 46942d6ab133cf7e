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
	"fmt"

	"github.com/chewxy/math32"

	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/model"
)

// ffmScore is the field-aware factorization machine:
//
//	bias + Σ w_i·x_i + Σ_{i<j} <v_{i,field(j)}, v_{j,field(i)}>·x_i·x_j
//
// The pairwise term has no sum-of-squares shortcut, so both score and
// gradient are O(nnz²·k).
type ffmScore struct {
	learningRate float32
	reguLambda   float32
	numField     int
	numK         int
}

func newFFMScore(hp model.HyperParam) Score {
	return &ffmScore{
		learningRate: hp.LearningRate,
		reguLambda:   hp.ReguLambda,
		numField:     hp.NumField,
		numK:         hp.NumK,
	}
}

func (s *ffmScore) Name() string {
	return model.ScoreFFM
}

// checkField panics on a field index outside [0, numField). A malformed
// field index would silently read another feature's latent vectors and
// corrupt the model.
func (s *ffmScore) checkField(node data.Node) {
	if int(node.Field) >= s.numField {
		panic(fmt.Sprintf("score: field index %d out of range [0, %d) for feature %d",
			node.Field, s.numField, node.Feature))
	}
}

func (s *ffmScore) CalcScore(row data.SparseRow, m *model.Model, norm float32) float32 {
	sqrtNorm := math32.Sqrt(norm)
	score := m.Bias
	for _, node := range row {
		s.checkField(node)
		score += m.W[node.Feature] * node.Value * norm
	}
	for i := 0; i < len(row); i++ {
		for j := i + 1; j < len(row); j++ {
			vi := m.VFieldSlice(row[i].Feature, row[j].Field)
			vj := m.VFieldSlice(row[j].Feature, row[i].Field)
			xij := row[i].Value * sqrtNorm * row[j].Value * sqrtNorm
			var dot float32
			for k := 0; k < s.numK; k++ {
				dot += vi[k] * vj[k]
			}
			score += dot * xij
		}
	}
	return score
}

func (s *ffmScore) CalcGrad(row data.SparseRow, m *model.Model, pg, norm float32) {
	sqrtNorm := math32.Sqrt(norm)
	adagrad(&m.Bias, &m.BiasCache, pg, s.learningRate)
	for _, node := range row {
		s.checkField(node)
		g := s.reguLambda*m.W[node.Feature] + pg*node.Value*norm
		adagrad(&m.W[node.Feature], &m.WCache[node.Feature], g, s.learningRate)
	}
	for i := 0; i < len(row); i++ {
		for j := i + 1; j < len(row); j++ {
			vi := m.VFieldSlice(row[i].Feature, row[j].Field)
			vj := m.VFieldSlice(row[j].Feature, row[i].Field)
			ci := m.VFieldCacheSlice(row[i].Feature, row[j].Field)
			cj := m.VFieldCacheSlice(row[j].Feature, row[i].Field)
			xij := pg * row[i].Value * sqrtNorm * row[j].Value * sqrtNorm
			for k := 0; k < s.numK; k++ {
				gi := s.reguLambda*vi[k] + xij*vj[k]
				gj := s.reguLambda*vj[k] + xij*vi[k]
				adagrad(&vi[k], &ci[k], gi, s.learningRate)
				adagrad(&vj[k], &cj[k], gj, s.learningRate)
			}
		}
	}
}
