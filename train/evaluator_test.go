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

package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRegression(t *testing.T) {
	score := EvaluateRegression([]float32{1, 2, 3}, []float32{1, 2, 3})
	assert.Equal(t, float32(0), score.RMSE)
	score = EvaluateRegression([]float32{2, 4}, []float32{0, 2})
	assert.InDelta(t, 2, score.RMSE, 1e-6)
	assert.Panics(t, func() { EvaluateRegression([]float32{1}, nil) })
}

func TestPrecisionRecallAccuracy(t *testing.T) {
	pos := []float32{1, 2, -1}
	neg := []float32{-2, 3}
	assert.InDelta(t, 2.0/3.0, Precision(pos, neg), 1e-6)
	assert.InDelta(t, 2.0/3.0, Recall(pos, neg), 1e-6)
	assert.InDelta(t, 3.0/5.0, Accuracy(pos, neg), 1e-6)
}

func TestAUC(t *testing.T) {
	// perfectly separated
	assert.Equal(t, float32(1), AUC([]float32{2, 3}, []float32{-1, 0}))
	// perfectly inverted
	assert.Equal(t, float32(0), AUC([]float32{-1, 0}, []float32{2, 3}))
	// half right
	assert.InDelta(t, 0.5, AUC([]float32{0, 2}, []float32{1, 1}), 1e-6)
	// degenerate inputs
	assert.Equal(t, float32(0), AUC(nil, []float32{1}))
}

func TestEvaluateClassification(t *testing.T) {
	predictions := []float32{2, -1, -3, 1}
	labels := []float32{1, 1, 0, 0}
	score := EvaluateClassification(predictions, labels)
	assert.InDelta(t, 0.5, score.Accuracy, 1e-6)
	assert.InDelta(t, 0.5, score.Precision, 1e-6)
	assert.InDelta(t, 0.5, score.Recall, 1e-6)
}
