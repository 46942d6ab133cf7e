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
	"sync"

	"github.com/chewxy/math32"

	"github.com/flash-ml/flash/common/floats"
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/model"
)

// fmScore is the factorization machine:
//
//	bias + Σ w_i·x_i + Σ_{i<j} <v_i,v_j>·x_i·x_j
//
// The pairwise term is computed in O(nnz·k) via the sum-of-squares identity.
// Scratch vectors come from a pool because many workers score rows at once.
type fmScore struct {
	learningRate float32
	reguLambda   float32
	numK         int
	buffers      sync.Pool
}

func newFMScore(hp model.HyperParam) Score {
	numK := hp.NumK
	return &fmScore{
		learningRate: hp.LearningRate,
		reguLambda:   hp.ReguLambda,
		numK:         numK,
		buffers: sync.Pool{New: func() any {
			return make([]float32, numK)
		}},
	}
}

func (s *fmScore) Name() string {
	return model.ScoreFM
}

func (s *fmScore) CalcScore(row data.SparseRow, m *model.Model, norm float32) float32 {
	sqrtNorm := math32.Sqrt(norm)
	score := m.Bias
	for _, node := range row {
		score += m.W[node.Feature] * node.Value * norm
	}
	// Σ_k ((Σ_i v_ik·x_i)² - Σ_i v_ik²·x_i²) / 2
	sum := s.buffers.Get().([]float32)
	defer s.buffers.Put(sum)
	floats.Zero(sum)
	var squareSum float32
	for _, node := range row {
		v := m.VSlice(node.Feature)
		x := node.Value * sqrtNorm
		floats.MulConstAdd(v, x, sum)
		squareSum += floats.Dot(v, v) * x * x
	}
	score += (floats.Dot(sum, sum) - squareSum) / 2
	return score
}

func (s *fmScore) CalcGrad(row data.SparseRow, m *model.Model, pg, norm float32) {
	sqrtNorm := math32.Sqrt(norm)
	adagrad(&m.Bias, &m.BiasCache, pg, s.learningRate)
	// Σ_i v_ik·x_i, shared by every feature's latent gradient
	sum := s.buffers.Get().([]float32)
	defer s.buffers.Put(sum)
	floats.Zero(sum)
	for _, node := range row {
		floats.MulConstAdd(m.VSlice(node.Feature), node.Value*sqrtNorm, sum)
	}
	for _, node := range row {
		g := s.reguLambda*m.W[node.Feature] + pg*node.Value*norm
		adagrad(&m.W[node.Feature], &m.WCache[node.Feature], g, s.learningRate)
		v := m.VSlice(node.Feature)
		cache := m.VCacheSlice(node.Feature)
		x := node.Value * sqrtNorm
		for k := 0; k < s.numK; k++ {
			gv := s.reguLambda*v[k] + pg*(sum[k]*x-v[k]*x*x)
			adagrad(&v[k], &cache[k], gv, s.learningRate)
		}
	}
}
