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

// Package loss implements the training objectives of flash: squared,
// cross-entropy and hinge. A Loss wraps a Score, owns the worker pool and
// drives the parallel gradient pass over a batch.
package loss

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/chewxy/math32"
	"golang.org/x/exp/maps"

	"github.com/flash-ml/flash/common/floats"
	"github.com/flash-ml/flash/common/parallel"
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/model"
	"github.com/flash-ml/flash/score"
)

// Loss is a training objective over a score function.
//
// Initialize must be called before anything else; it borrows the score
// function and spawns the worker pool that Predict and CalcGrad partition
// rows over. The pool lives until Close.
//
// CalcGrad mutates the model in place from all workers at once without
// locking (see model.Model); it returns the summed per-sample loss of the
// batch so the trainer can report a running training loss. Predict never
// mutates the model.
type Loss interface {
	Initialize(scoreFunc score.Score, jobs int, norm bool)
	Evalute(pred, label []float32) float32
	Predict(batch *data.DMatrix, m *model.Model, pred []float32)
	CalcGrad(batch *data.DMatrix, m *model.Model) float32
	Type() string
	Close()
}

// Creator constructs a Loss.
type Creator func() Loss

var registry = map[string]Creator{
	model.LossSquared:      newSquaredLoss,
	model.LossCrossEntropy: newCrossEntropyLoss,
	model.LossHinge:        newHingeLoss,
}

// New constructs a loss function by name. Unknown or empty names return nil;
// callers must check before use.
func New(name string) Loss {
	if creator, ok := registry[name]; ok {
		return creator()
	}
	return nil
}

// Names lists the registered loss function names.
func Names() []string {
	names := maps.Keys(registry)
	sort.Strings(names)
	return names
}

type baseLoss struct {
	scoreFunc score.Score
	pool      *parallel.Pool
	norm      bool
}

func (l *baseLoss) Initialize(scoreFunc score.Score, jobs int, norm bool) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	l.scoreFunc = scoreFunc
	l.norm = norm
	l.pool = parallel.NewPool(jobs)
}

func (l *baseLoss) Close() {
	if l.pool != nil {
		l.pool.Close()
		l.pool = nil
	}
}

func (l *baseLoss) normFactor(batch *data.DMatrix, i int) float32 {
	if l.norm {
		return batch.Norms[i]
	}
	return 1
}

// Predict fills pred with the score of every row, partitioned across the
// worker pool by contiguous row ranges.
func (l *baseLoss) Predict(batch *data.DMatrix, m *model.Model, pred []float32) {
	if len(pred) != batch.Count() {
		panic(fmt.Sprintf("loss: len(pred) = %d, want %d", len(pred), batch.Count()))
	}
	parallel.BlockRange(l.pool, batch.Count(), func(_, begin, end int) {
		for i := begin; i < end; i++ {
			pred[i] = l.scoreFunc.CalcScore(batch.Rows[i], m, l.normFactor(batch, i))
		}
	})
}

// calcGrad runs the parallel gradient pass. grad maps (prediction, label) to
// the partial gradient w.r.t. the score and the per-sample loss value.
// Per-worker loss sums land in disjoint slots; only the model parameters are
// updated racily.
func (l *baseLoss) calcGrad(batch *data.DMatrix, m *model.Model, grad func(pred, label float32) (pg, value float32)) float32 {
	sums := make([]float32, l.pool.Workers())
	parallel.BlockRange(l.pool, batch.Count(), func(workerId, begin, end int) {
		var sum float32
		for i := begin; i < end; i++ {
			norm := l.normFactor(batch, i)
			pred := l.scoreFunc.CalcScore(batch.Rows[i], m, norm)
			pg, value := grad(pred, batch.Y[i])
			sum += value
			// a zero partial gradient means the row is inactive for this
			// loss (hinge outside the margin); skip the update so the
			// regularizer and AdaGrad caches stay untouched
			if pg != 0 {
				l.scoreFunc.CalcGrad(batch.Rows[i], m, pg, norm)
			}
		}
		sums[workerId] = sum
	})
	return floats.Sum(sums)
}

// Sigmoid maps raw scores to probabilities in (0, 1).
func Sigmoid(pred, out []float32) {
	if len(pred) != len(out) {
		panic(fmt.Sprintf("loss: len(pred) = %d, len(out) = %d", len(pred), len(out)))
	}
	for i := range pred {
		out[i] = sigmoid(pred[i])
	}
}

// Sign maps raw scores to {0, 1} decisions: pred >= 0 -> 1, else 0.
func Sign(pred, out []float32) {
	if len(pred) != len(out) {
		panic(fmt.Sprintf("loss: len(pred) = %d, len(out) = %d", len(pred), len(out)))
	}
	for i := range pred {
		if pred[i] >= 0 {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
}

// sigmoid is the numerically stable logistic function.
func sigmoid(x float32) float32 {
	if x >= 0 {
		return 1 / (1 + math32.Exp(-x))
	}
	e := math32.Exp(x)
	return e / (1 + e)
}

// softplus is log(1+exp(x)) without overflow for large x.
func softplus(x float32) float32 {
	if x > 0 {
		return x + math32.Log1p(math32.Exp(-x))
	}
	return math32.Log1p(math32.Exp(x))
}

// binaryLabel folds arbitrary labels onto {-1, +1}.
func binaryLabel(y float32) float32 {
	if y > 0 {
		return 1
	}
	return -1
}

func checkLengths(pred, label []float32) {
	if len(pred) != len(label) {
		panic(fmt.Sprintf("loss: len(pred) = %d, len(label) = %d", len(pred), len(label)))
	}
}
