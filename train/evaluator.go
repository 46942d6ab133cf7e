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
	"sort"

	"github.com/chewxy/math32"
	"modernc.org/sortutil"
)

// Score holds the evaluation metrics of a fitted model on a hold-out set.
// RMSE is filled for regression, the remaining fields for classification.
type Score struct {
	RMSE      float32
	Precision float32
	Recall    float32
	Accuracy  float32
	AUC       float32
}

// EvaluateRegression computes the root mean squared error of raw predictions.
func EvaluateRegression(predictions, labels []float32) Score {
	if len(predictions) != len(labels) {
		panic("train: len(predictions) != len(labels)")
	}
	if len(predictions) == 0 {
		return Score{}
	}
	sum := float32(0)
	for i := range predictions {
		d := predictions[i] - labels[i]
		sum += d * d
	}
	return Score{RMSE: math32.Sqrt(sum / float32(len(predictions)))}
}

// EvaluateClassification computes binary classification metrics from raw
// scores. Labels are positive when greater than zero; scores are compared
// against the decision boundary at zero.
func EvaluateClassification(predictions, labels []float32) Score {
	if len(predictions) != len(labels) {
		panic("train: len(predictions) != len(labels)")
	}
	var posPrediction, negPrediction []float32
	for i := range predictions {
		if labels[i] > 0 {
			posPrediction = append(posPrediction, predictions[i])
		} else {
			negPrediction = append(negPrediction, predictions[i])
		}
	}
	if len(predictions) == 0 {
		return Score{}
	}
	return Score{
		Precision: Precision(posPrediction, negPrediction),
		Recall:    Recall(posPrediction, negPrediction),
		Accuracy:  Accuracy(posPrediction, negPrediction),
		AUC:       AUC(posPrediction, negPrediction),
	}
}

func Precision(posPrediction, negPrediction []float32) float32 {
	var tp, fp float32
	for _, p := range posPrediction {
		if p > 0 { // true positive
			tp++
		}
	}
	for _, p := range negPrediction {
		if p > 0 { // false positive
			fp++
		}
	}
	if tp+fp == 0 {
		return 0
	}
	return tp / (tp + fp)
}

func Recall(posPrediction, _ []float32) float32 {
	var tp, fn float32
	for _, p := range posPrediction {
		if p > 0 { // true positive
			tp++
		} else { // false negative
			fn++
		}
	}
	if tp+fn == 0 {
		return 0
	}
	return tp / (tp + fn)
}

func Accuracy(posPrediction, negPrediction []float32) float32 {
	var correct float32
	for _, p := range posPrediction {
		if p > 0 {
			correct++
		}
	}
	for _, p := range negPrediction {
		if p < 0 {
			correct++
		}
	}
	if len(posPrediction)+len(negPrediction) == 0 {
		return 0
	}
	return correct / float32(len(posPrediction)+len(negPrediction))
}

func AUC(posPrediction, negPrediction []float32) float32 {
	sort.Sort(sortutil.Float32Slice(posPrediction))
	sort.Sort(sortutil.Float32Slice(negPrediction))
	var sum float32
	var nPos int
	for pPos := range posPrediction {
		// count negative samples scored below the current positive sample
		for nPos < len(negPrediction) && negPrediction[nPos] < posPrediction[pPos] {
			nPos++
		}
		sum += float32(nPos)
	}
	if len(posPrediction)*len(negPrediction) == 0 {
		return 0
	}
	return sum / float32(len(posPrediction)*len(negPrediction))
}
