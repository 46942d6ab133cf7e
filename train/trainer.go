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
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/flash-ml/flash/base/log"
	"github.com/flash-ml/flash/base/progress"
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/loss"
	"github.com/flash-ml/flash/model"
)

// StopReason tells why a fit terminated.
type StopReason string

const (
	// StopMaxEpoch means all configured epochs ran.
	StopMaxEpoch StopReason = "max_epoch"
	// StopEarly means the validation loss stalled for the whole stop window.
	StopEarly StopReason = "early_stop"
	// StopConverged means the training loss stopped moving between epochs.
	StopConverged StopReason = "converged"
	// StopDiverged means the training loss became NaN or infinite.
	StopDiverged StopReason = "diverged"
)

// convergenceEpsilon is the minimum relative change of the training loss
// between consecutive epochs before the fit is declared converged.
const convergenceEpsilon = 1e-6

// Result carries the outcome of a fit: the model to keep (best validation
// snapshot when a validation set was given, otherwise the final model) and
// the per-epoch loss history.
type Result struct {
	Reason    StopReason
	Model     *model.Model
	BestEpoch int
	BestLoss  float32
	TrainLoss []float32
	ValLoss   []float32
}

// Trainer runs the epoch loop of stochastic gradient descent: drain the
// training reader through Loss.CalcGrad, evaluate on the validation reader
// without touching parameters, and consult the checker for early stopping.
type Trainer struct {
	lossFunc loss.Loss
	hp       model.HyperParam
}

// NewTrainer creates a trainer over an initialized loss.
func NewTrainer(lossFunc loss.Loss, hp model.HyperParam) *Trainer {
	return &Trainer{lossFunc: lossFunc, hp: hp}
}

// Fit trains m in place. validReader may be nil, in which case no early
// stopping happens and the final model is returned.
func (t *Trainer) Fit(ctx context.Context, m *model.Model, trainReader, validReader data.Reader) Result {
	m.CheckShape(t.hp)
	checker := NewChecker(t.hp.StopWindow)
	result := Result{Reason: StopMaxEpoch, BestEpoch: t.hp.Epoch - 1}
	log.Logger().Info("start training",
		zap.String("score_func", t.hp.ScoreFunc),
		zap.String("loss_func", t.lossFunc.Type()),
		zap.Int("epoch", t.hp.Epoch),
		zap.Int("jobs", t.hp.Jobs))

	newCtx, span := progress.Start(ctx, "Trainer.Fit", t.hp.Epoch)
	defer span.End()

	prevTrainLoss := math32.Inf(1)
	for epoch := 0; epoch < t.hp.Epoch; epoch++ {
		select {
		case <-newCtx.Done():
			span.Error(newCtx.Err())
			result.Model = m
			return result
		default:
		}

		fitStart := time.Now()
		trainLoss := t.trainEpoch(trainReader, m)
		fitTime := time.Since(fitStart)
		result.TrainLoss = append(result.TrainLoss, trainLoss)

		if math32.IsNaN(trainLoss) || math32.IsInf(trainLoss, 0) {
			log.Logger().Warn("model diverged", zap.Int("epoch", epoch+1),
				zap.Float32("train_loss", trainLoss))
			result.Reason = StopDiverged
			break
		}

		evalStart := time.Now()
		valLoss := float32(0)
		if validReader != nil {
			valLoss = t.evaluate(validReader, m)
			result.ValLoss = append(result.ValLoss, valLoss)
		}
		evalTime := time.Since(evalStart)

		log.Logger().Info(fmt.Sprintf("epoch %v/%v", epoch+1, t.hp.Epoch),
			zap.String("fit_time", fitTime.String()),
			zap.String("eval_time", evalTime.String()),
			zap.Float32("train_loss", trainLoss),
			zap.Float32("val_loss", valLoss))
		span.Add(1)

		if validReader != nil && checker.Update(epoch, valLoss, m) {
			log.Logger().Info("early stopping",
				zap.Int("best_epoch", checker.BestEpoch()+1),
				zap.Float32("best_loss", checker.BestLoss()))
			result.Reason = StopEarly
			break
		}
		if math32.Abs(trainLoss-prevTrainLoss) < convergenceEpsilon*math32.Abs(prevTrainLoss) {
			result.Reason = StopConverged
			break
		}
		prevTrainLoss = trainLoss
	}

	if validReader != nil && checker.BestModel() != nil {
		result.Model = checker.BestModel()
		result.BestEpoch = checker.BestEpoch()
		result.BestLoss = checker.BestLoss()
	} else {
		result.Model = m
		result.BestEpoch = len(result.TrainLoss) - 1
		if n := len(result.TrainLoss); n > 0 {
			result.BestLoss = result.TrainLoss[n-1]
		}
	}
	return result
}

// trainEpoch drains the reader once and returns the mean training loss.
func (t *Trainer) trainEpoch(reader data.Reader, m *model.Model) float32 {
	reader.Reset()
	batch := new(data.DMatrix)
	lossSum := float32(0)
	count := 0
	for {
		n := reader.Samples(batch)
		if n == 0 {
			break
		}
		lossSum += t.lossFunc.CalcGrad(batch, m)
		count += n
	}
	if count == 0 {
		return 0
	}
	return lossSum / float32(count)
}

// evaluate computes the mean validation loss without mutating the model.
func (t *Trainer) evaluate(reader data.Reader, m *model.Model) float32 {
	reader.Reset()
	batch := new(data.DMatrix)
	lossSum := float32(0)
	count := 0
	for {
		n := reader.Samples(batch)
		if n == 0 {
			break
		}
		pred := make([]float32, n)
		t.lossFunc.Predict(batch, m, pred)
		lossSum += t.lossFunc.Evalute(pred, batch.Y) * float32(n)
		count += n
	}
	if count == 0 {
		return 0
	}
	return lossSum / float32(count)
}
