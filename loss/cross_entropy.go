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

package loss

import (
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/model"
)

// crossEntropyLoss is the binary classification objective
// log(1 + exp(-y·pred)) over labels folded onto {-1, +1}.
type crossEntropyLoss struct {
	baseLoss
}

func newCrossEntropyLoss() Loss {
	return new(crossEntropyLoss)
}

func (l *crossEntropyLoss) Type() string {
	return model.LossCrossEntropy
}

func (l *crossEntropyLoss) Evalute(pred, label []float32) float32 {
	checkLengths(pred, label)
	if len(pred) == 0 {
		return 0
	}
	var sum float32
	for i := range pred {
		sum += softplus(-binaryLabel(label[i]) * pred[i])
	}
	return sum / float32(len(pred))
}

func (l *crossEntropyLoss) CalcGrad(batch *data.DMatrix, m *model.Model) float32 {
	return l.calcGrad(batch, m, func(pred, label float32) (float32, float32) {
		y := binaryLabel(label)
		return -y * sigmoid(-y*pred), softplus(-y * pred)
	})
}
