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
	"github.com/stretchr/testify/require"

	"github.com/flash-ml/flash/model"
)

func newCheckerModel(t *testing.T) *model.Model {
	hp := model.NewHyperParam()
	hp.NumFeature = 3
	m := model.NewModel(hp)
	require.NotNil(t, m)
	return m
}

func TestCheckerStopsAfterWindow(t *testing.T) {
	m := newCheckerModel(t)
	checker := NewChecker(2)

	// improving, improving, then two stalled epochs
	assert.False(t, checker.Update(0, 0.5, m))
	assert.False(t, checker.Update(1, 0.4, m))
	assert.False(t, checker.Update(2, 0.45, m))
	assert.True(t, checker.Update(3, 0.44, m))
	assert.Equal(t, 1, checker.BestEpoch())
	assert.Equal(t, float32(0.4), checker.BestLoss())
}

func TestCheckerResetsOnNewBest(t *testing.T) {
	m := newCheckerModel(t)
	checker := NewChecker(2)

	assert.False(t, checker.Update(0, 0.5, m))
	assert.False(t, checker.Update(1, 0.6, m))
	// a new best clears the stall counter
	assert.False(t, checker.Update(2, 0.3, m))
	assert.False(t, checker.Update(3, 0.31, m))
	assert.True(t, checker.Update(4, 0.32, m))
	assert.Equal(t, 2, checker.BestEpoch())
}

func TestCheckerSnapshotIsDeepCopy(t *testing.T) {
	m := newCheckerModel(t)
	checker := NewChecker(2)

	m.W[0] = 42
	assert.False(t, checker.Update(0, 0.5, m))
	// later mutation must not leak into the snapshot
	m.W[0] = 0
	assert.False(t, checker.Update(1, 0.6, m))
	assert.Equal(t, float32(42), checker.BestModel().W[0])
}

func TestCheckerDisabledWindow(t *testing.T) {
	m := newCheckerModel(t)
	checker := NewChecker(0)
	for epoch := 0; epoch < 10; epoch++ {
		assert.False(t, checker.Update(epoch, 1, m))
	}
	// the best snapshot is still tracked
	assert.Equal(t, 0, checker.BestEpoch())
}
