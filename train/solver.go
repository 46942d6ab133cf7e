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
	"context"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/flash-ml/flash/base/log"
	"github.com/flash-ml/flash/common/floats"
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/loss"
	"github.com/flash-ml/flash/model"
	"github.com/flash-ml/flash/score"
)

// Solver assembles the score and loss functions named by the hyper-parameters
// and drives training, cross validation and inference with them. It owns the
// loss (and its worker pool); Close releases it.
type Solver struct {
	hp       model.HyperParam
	lossFunc loss.Loss
}

// NewSolver validates hp and builds the score/loss pair from the registries.
// Unknown names fail fast instead of silently falling back.
func NewSolver(hp model.HyperParam) (*Solver, error) {
	if err := hp.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	lossFunc, err := buildLoss(hp)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Solver{hp: hp, lossFunc: lossFunc}, nil
}

// buildLoss creates and initializes a loss for hp, including its score
// function and worker pool.
func buildLoss(hp model.HyperParam) (loss.Loss, error) {
	scoreFunc := score.New(hp.ScoreFunc, hp)
	if scoreFunc == nil {
		return nil, errors.NotFoundf("score function %q (available: %s)",
			hp.ScoreFunc, strings.Join(score.Names(), ", "))
	}
	lossFunc := loss.New(hp.LossFunc)
	if lossFunc == nil {
		return nil, errors.NotFoundf("loss function %q (available: %s)",
			hp.LossFunc, strings.Join(loss.Names(), ", "))
	}
	lossFunc.Initialize(scoreFunc, hp.Jobs, hp.Norm)
	return lossFunc, nil
}

// Close releases the loss and its worker pool.
func (s *Solver) Close() {
	s.lossFunc.Close()
}

// HyperParam returns the validated hyper-parameters the solver was built with.
func (s *Solver) HyperParam() model.HyperParam {
	return s.hp
}

// Train fits a fresh model on trainReader, validating on validReader (which
// may be nil).
func (s *Solver) Train(ctx context.Context, trainReader, validReader data.Reader) Result {
	m := model.NewModel(s.hp)
	trainer := NewTrainer(s.lossFunc, s.hp)
	return trainer.Fit(ctx, m, trainReader, validReader)
}

// CVResult aggregates the per-fold validation losses of a cross validation run.
type CVResult struct {
	FoldLoss []float32
	Mean     float32
	StdDev   float32
}

// CrossValidate runs k-fold cross validation over matrix. Each fold gets a
// fresh model and a fresh loss so no state leaks between folds.
func (s *Solver) CrossValidate(ctx context.Context, matrix *data.DMatrix, k int) (CVResult, error) {
	folds := matrix.KFold(k, s.hp.Seed)
	result := CVResult{FoldLoss: make([]float32, 0, k)}
	for i, fold := range folds {
		lossFunc, err := buildLoss(s.hp)
		if err != nil {
			return CVResult{}, errors.Trace(err)
		}
		m := model.NewModel(s.hp)
		trainer := NewTrainer(lossFunc, s.hp)
		trainReader := data.NewInMemoryReader(fold.A, 0)
		validReader := data.NewInMemoryReader(fold.B, 0)
		foldResult := trainer.Fit(ctx, m, trainReader, validReader)
		lossFunc.Close()
		log.Logger().Info("cross validation fold",
			zap.Int("fold", i+1),
			zap.Int("folds", k),
			zap.Float32("val_loss", foldResult.BestLoss))
		result.FoldLoss = append(result.FoldLoss, foldResult.BestLoss)
	}
	result.Mean = floats.Mean(result.FoldLoss)
	result.StdDev = floats.StdDev(result.FoldLoss)
	log.Logger().Info("cross validation finished",
		zap.Float32("mean_loss", result.Mean),
		zap.Float32("std_dev", result.StdDev))
	return result, nil
}

// Predict scores every sample from reader with m and returns the raw outputs
// in reader order. The model is never mutated.
func (s *Solver) Predict(reader data.Reader, m *model.Model) []float32 {
	reader.Reset()
	batch := new(data.DMatrix)
	var predictions []float32
	for {
		n := reader.Samples(batch)
		if n == 0 {
			break
		}
		pred := make([]float32, n)
		s.lossFunc.Predict(batch, m, pred)
		predictions = append(predictions, pred...)
	}
	return predictions
}

// Evaluate scores reader with m and computes task metrics: RMSE for squared
// loss, classification metrics otherwise.
func (s *Solver) Evaluate(reader data.Reader, m *model.Model) Score {
	predictions := s.Predict(reader, m)
	labels := collectLabels(reader)
	if s.hp.LossFunc == model.LossSquared {
		return EvaluateRegression(predictions, labels)
	}
	return EvaluateClassification(predictions, labels)
}

func collectLabels(reader data.Reader) []float32 {
	if r, ok := reader.(*data.InMemoryReader); ok {
		return r.Matrix().Y
	}
	reader.Reset()
	batch := new(data.DMatrix)
	var labels []float32
	for {
		n := reader.Samples(batch)
		if n == 0 {
			break
		}
		labels = append(labels, batch.Y...)
	}
	return labels
}
