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

// Package score implements the prediction functions of flash: linear, fm and
// ffm. A Score computes a scalar prediction from one sparse row and applies
// the sparse AdaGrad update derived from a loss's partial gradient.
package score

import (
	"sort"

	"github.com/chewxy/math32"
	"golang.org/x/exp/maps"

	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/model"
)

// Score is the prediction function of a model.
//
// CalcScore computes bias + linear term + pairwise interactions for one row.
// norm rescales the row for instance-wise normalization; pass 1 when
// normalization is disabled.
//
// CalcGrad applies the parameter update for one row. pg is the partial
// gradient of the loss with respect to the score. Only slots touched by the
// row's nonzero features are written, plus the bias.
type Score interface {
	CalcScore(row data.SparseRow, m *model.Model, norm float32) float32
	CalcGrad(row data.SparseRow, m *model.Model, pg, norm float32)
	Name() string
}

// Creator constructs a Score from hyper-parameters.
type Creator func(hp model.HyperParam) Score

var registry = map[string]Creator{
	model.ScoreLinear: newLinearScore,
	model.ScoreFM:     newFMScore,
	model.ScoreFFM:    newFFMScore,
}

// New constructs a score function by name. Unknown or empty names return
// nil; callers must check before use.
func New(name string, hp model.HyperParam) Score {
	if creator, ok := registry[name]; ok {
		return creator(hp)
	}
	return nil
}

// Names lists the registered score function names.
func Names() []string {
	names := maps.Keys(registry)
	sort.Strings(names)
	return names
}

// adagrad applies one adaptive step: the accumulator grows by the squared
// gradient and shrinks the effective learning rate.
func adagrad(w, cache *float32, g, lr float32) {
	*cache += g * g
	*w -= lr * g / math32.Sqrt(*cache)
}
