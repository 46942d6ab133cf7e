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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flash-ml/flash/model"
)

func writeConfig(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "flash.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[task]
train = "train.ffm"
validation = "valid.ffm"
model_file = "model.bin"

[model]
score = "ffm"
loss = "cross-entropy"
k = 8

[train]
learning_rate = 0.1
lambda = 0.0001
epoch = 20
stop_window = 3
norm = false
jobs = 2
seed = 42
`)
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "train.ffm", conf.Task.Train)
	assert.Equal(t, "valid.ffm", conf.Task.Validation)
	assert.Equal(t, "ffm", conf.Model.Score)
	assert.Equal(t, "cross-entropy", conf.Model.Loss)
	assert.Equal(t, 8, conf.Model.K)

	hp := conf.HyperParam()
	assert.Equal(t, model.ScoreFFM, hp.ScoreFunc)
	assert.Equal(t, model.LossCrossEntropy, hp.LossFunc)
	assert.Equal(t, float32(0.1), hp.LearningRate)
	assert.Equal(t, float32(0.0001), hp.ReguLambda)
	assert.Equal(t, 20, hp.Epoch)
	assert.Equal(t, 3, hp.StopWindow)
	assert.False(t, hp.Norm)
	assert.Equal(t, 2, hp.Jobs)
	assert.Equal(t, int64(42), hp.Seed)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
[task]
train = "train.svm"
`)
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	defaults := model.NewHyperParam()
	assert.Equal(t, defaults.ScoreFunc, conf.Model.Score)
	assert.Equal(t, defaults.LossFunc, conf.Model.Loss)
	assert.Equal(t, defaults.LearningRate, conf.Train.LearningRate)
	assert.Equal(t, defaults.Epoch, conf.Train.Epoch)
	assert.Equal(t, defaults.StopWindow, conf.Train.StopWindow)
	assert.True(t, conf.Train.Norm)
}

func TestLoadConfigInvalid(t *testing.T) {
	// missing train file
	_, err := LoadConfig(writeConfig(t, `
[model]
score = "fm"
`))
	assert.Error(t, err)

	// unknown score name
	_, err = LoadConfig(writeConfig(t, `
[task]
train = "train.svm"

[model]
score = "deep"
`))
	assert.Error(t, err)

	// nonsense learning rate
	_, err = LoadConfig(writeConfig(t, `
[task]
train = "train.svm"

[train]
learning_rate = -1.0
`))
	assert.Error(t, err)

	// unreadable file
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
