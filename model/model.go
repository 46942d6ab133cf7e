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

package model

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/flash-ml/flash/base"
	"github.com/flash-ml/flash/common/floats"
)

// Model owns the flat parameter arrays of a linear, fm or ffm model together
// with their AdaGrad gradient accumulators. Accumulators start at 1 so the
// first update steps at the plain learning rate.
//
// During CalcGrad all training workers mutate W and V concurrently without
// locks. Collisions are rare for sparse high-dimensional rows and the
// occasional lost update is tolerated; final parameters are therefore
// run-dependent across worker counts. Do not serialize these writes.
type Model struct {
	ScoreFunc  string
	NumFeature int
	NumField   int
	NumK       int

	Bias      float32
	BiasCache float32
	W         []float32
	WCache    []float32
	V         []float32
	VCache    []float32
}

// NewModel allocates a model for the given hyper-parameters. Linear weights
// start at zero, latent factors at Gaussian noise scaled by 1/sqrt(k).
func NewModel(hp HyperParam) *Model {
	m := &Model{
		ScoreFunc:  hp.ScoreFunc,
		NumFeature: hp.NumFeature,
		NumK:       hp.NumK,
		BiasCache:  1,
		W:          make([]float32, hp.NumFeature),
		WCache:     make([]float32, hp.NumFeature),
	}
	floats.Fill(m.WCache, 1)
	var vSize int
	switch hp.ScoreFunc {
	case ScoreFM:
		vSize = hp.NumFeature * hp.NumK
	case ScoreFFM:
		m.NumField = hp.NumField
		vSize = hp.NumFeature * hp.NumField * hp.NumK
	default:
		m.NumK = 0
		return m
	}
	rng := base.NewRandomGenerator(hp.Seed)
	scale := 1 / math32.Sqrt(float32(hp.NumK))
	m.V = rng.NormalVector(vSize, hp.InitMean, hp.InitStdDev)
	floats.MulConst(m.V, scale)
	m.VCache = make([]float32, vSize)
	floats.Fill(m.VCache, 1)
	return m
}

// VSlice returns the latent vector of a feature (fm).
func (m *Model) VSlice(feature uint32) []float32 {
	begin := int(feature) * m.NumK
	return m.V[begin : begin+m.NumK]
}

// VCacheSlice returns the accumulator vector of a feature (fm).
func (m *Model) VCacheSlice(feature uint32) []float32 {
	begin := int(feature) * m.NumK
	return m.VCache[begin : begin+m.NumK]
}

// VFieldSlice returns the latent vector of a feature against a field (ffm).
func (m *Model) VFieldSlice(feature, field uint32) []float32 {
	begin := (int(feature)*m.NumField + int(field)) * m.NumK
	return m.V[begin : begin+m.NumK]
}

// VFieldCacheSlice returns the accumulator vector of a feature against a
// field (ffm).
func (m *Model) VFieldCacheSlice(feature, field uint32) []float32 {
	begin := (int(feature)*m.NumField + int(field)) * m.NumK
	return m.VCache[begin : begin+m.NumK]
}

// ParameterW exposes the linear weights for external serializers.
func (m *Model) ParameterW() []float32 {
	return m.W
}

// ParameterV exposes the latent weights for external serializers.
func (m *Model) ParameterV() []float32 {
	return m.V
}

// Clone returns a deep copy, used by the Checker to snapshot the best epoch.
func (m *Model) Clone() *Model {
	copied := &Model{
		ScoreFunc:  m.ScoreFunc,
		NumFeature: m.NumFeature,
		NumField:   m.NumField,
		NumK:       m.NumK,
		Bias:       m.Bias,
		BiasCache:  m.BiasCache,
	}
	copied.W = append([]float32(nil), m.W...)
	copied.WCache = append([]float32(nil), m.WCache...)
	copied.V = append([]float32(nil), m.V...)
	copied.VCache = append([]float32(nil), m.VCache...)
	return copied
}

// CheckShape panics if the model shape does not match the hyper-parameters.
// A mismatch means corrupted state upstream; continuing would silently break
// the gradient math.
func (m *Model) CheckShape(hp HyperParam) {
	if m.ScoreFunc != hp.ScoreFunc {
		panic(fmt.Sprintf("model: score function mismatch: %q vs %q", m.ScoreFunc, hp.ScoreFunc))
	}
	if m.NumFeature != hp.NumFeature {
		panic(fmt.Sprintf("model: feature count mismatch: %d vs %d", m.NumFeature, hp.NumFeature))
	}
	if len(m.W) != m.NumFeature {
		panic(fmt.Sprintf("model: len(W) = %d, want %d", len(m.W), m.NumFeature))
	}
	switch m.ScoreFunc {
	case ScoreFM:
		if len(m.V) != m.NumFeature*m.NumK {
			panic(fmt.Sprintf("model: len(V) = %d, want %d", len(m.V), m.NumFeature*m.NumK))
		}
	case ScoreFFM:
		if len(m.V) != m.NumFeature*m.NumField*m.NumK {
			panic(fmt.Sprintf("model: len(V) = %d, want %d", len(m.V), m.NumFeature*m.NumField*m.NumK))
		}
	}
}
