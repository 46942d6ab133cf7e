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
	"runtime"

	"github.com/juju/errors"
)

// Score function names accepted by HyperParam.ScoreFunc.
const (
	ScoreLinear = "linear"
	ScoreFM     = "fm"
	ScoreFFM    = "ffm"
)

// Loss function names accepted by HyperParam.LossFunc.
const (
	LossSquared      = "squared"
	LossCrossEntropy = "cross-entropy"
	LossHinge        = "hinge"
)

// HyperParam is the configuration record of one training run. It is consumed
// at Solver construction time and must not change while training runs.
type HyperParam struct {
	// learning rate for stochastic gradient descent
	LearningRate float32
	// lambda for L2 regularization
	ReguLambda float32
	// loss function: squared, cross-entropy or hinge
	LossFunc string
	// score function: linear, fm or ffm
	ScoreFunc string
	// number of features
	NumFeature int
	// number of fields, used only by ffm
	NumField int
	// number of latent factors, used by fm and ffm
	NumK int
	// number of epochs
	Epoch int
	// early stopping window, 0 disables early stopping
	StopWindow int
	// instance-wise normalization
	Norm bool
	// random seed for parameter initialization
	Seed int64
	// Gaussian initialization of latent factors
	InitMean   float32
	InitStdDev float32
	// number of training workers
	Jobs int
}

// NewHyperParam returns the default hyper-parameters.
func NewHyperParam() HyperParam {
	return HyperParam{
		LearningRate: 0.2,
		ReguLambda:   0.00002,
		LossFunc:     LossSquared,
		ScoreFunc:    ScoreLinear,
		NumK:         4,
		Epoch:        10,
		StopWindow:   2,
		Norm:         true,
		InitMean:     0,
		InitStdDev:   0.01,
		Jobs:         runtime.NumCPU(),
	}
}

// Validate checks the invariants between the selected score function and the
// shape parameters.
func (hp HyperParam) Validate() error {
	if hp.LearningRate <= 0 {
		return errors.Errorf("learning rate must be positive, got %v", hp.LearningRate)
	}
	if hp.ReguLambda < 0 {
		return errors.Errorf("regularization lambda must not be negative, got %v", hp.ReguLambda)
	}
	if hp.NumFeature <= 0 {
		return errors.Errorf("number of features must be positive, got %v", hp.NumFeature)
	}
	if hp.Epoch <= 0 {
		return errors.Errorf("number of epochs must be positive, got %v", hp.Epoch)
	}
	switch hp.ScoreFunc {
	case ScoreLinear:
	case ScoreFM:
		if hp.NumK <= 0 {
			return errors.Errorf("fm requires a positive number of latent factors, got %v", hp.NumK)
		}
	case ScoreFFM:
		if hp.NumK <= 0 {
			return errors.Errorf("ffm requires a positive number of latent factors, got %v", hp.NumK)
		}
		if hp.NumField <= 0 {
			return errors.Errorf("ffm requires a positive number of fields, got %v", hp.NumField)
		}
	default:
		return errors.NotFoundf("score function %q", hp.ScoreFunc)
	}
	switch hp.LossFunc {
	case LossSquared, LossCrossEntropy, LossHinge:
	default:
		return errors.NotFoundf("loss function %q", hp.LossFunc)
	}
	return nil
}
