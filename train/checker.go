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
	"github.com/chewxy/math32"

	"github.com/flash-ml/flash/model"
)

// Checker watches the validation loss sequence, keeps a deep-copied snapshot
// of the model at the best epoch and signals early stopping after stopWindow
// consecutive epochs without a new best. A stopWindow of zero disables early
// stopping but still tracks the best snapshot.
type Checker struct {
	stopWindow int
	bestLoss   float32
	bestEpoch  int
	bestModel  *model.Model
	badEpochs  int
}

// NewChecker creates a checker with the given early stopping window.
func NewChecker(stopWindow int) *Checker {
	return &Checker{
		stopWindow: stopWindow,
		bestLoss:   math32.Inf(1),
		bestEpoch:  -1,
	}
}

// Update records the validation loss of an epoch and returns true when
// training should stop early. The non-improvement counter resets whenever a
// new best is observed.
func (c *Checker) Update(epoch int, valLoss float32, m *model.Model) bool {
	if valLoss < c.bestLoss {
		c.bestLoss = valLoss
		c.bestEpoch = epoch
		c.bestModel = m.Clone()
		c.badEpochs = 0
		return false
	}
	c.badEpochs++
	return c.stopWindow > 0 && c.badEpochs >= c.stopWindow
}

// BestEpoch returns the epoch with the lowest validation loss so far, -1
// before the first update.
func (c *Checker) BestEpoch() int {
	return c.bestEpoch
}

// BestLoss returns the lowest validation loss so far.
func (c *Checker) BestLoss() float32 {
	return c.bestLoss
}

// BestModel returns the snapshot taken at the best epoch. It is the caller's
// model to keep; the checker never mutates it again.
func (c *Checker) BestModel() *model.Model {
	return c.bestModel
}
