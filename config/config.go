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
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/flash-ml/flash/model"
)

// Config is the on-disk (TOML) configuration of a training run.
type Config struct {
	Task  TaskConfig  `mapstructure:"task"`
	Model ModelConfig `mapstructure:"model"`
	Train TrainConfig `mapstructure:"train"`
}

// TaskConfig names the input and output files of the run.
type TaskConfig struct {
	// Train is the path of the training file (libsvm or libffm).
	Train string `mapstructure:"train" validate:"required"`
	// Validation is the optional path of the hold-out file. When empty and
	// SplitRatio is positive, the hold-out is sampled from the training file.
	Validation string `mapstructure:"validation"`
	// SplitRatio is the fraction of training rows sampled as hold-out when no
	// validation file is given.
	SplitRatio float32 `mapstructure:"split_ratio" validate:"gte=0,lt=1"`
	// Folds enables k-fold cross validation when at least 2.
	Folds int `mapstructure:"folds" validate:"eq=0|gte=2"`
	// ModelFile is where the fitted model is saved. Empty disables saving.
	ModelFile string `mapstructure:"model_file"`
}

// ModelConfig selects the score and loss functions.
type ModelConfig struct {
	Score string `mapstructure:"score" validate:"oneof=linear fm ffm"`
	Loss  string `mapstructure:"loss" validate:"oneof=squared cross-entropy hinge"`
	// K is the latent factor size of fm and ffm.
	K int `mapstructure:"k" validate:"gte=0"`
}

// TrainConfig holds the optimization hyper-parameters.
type TrainConfig struct {
	LearningRate float32 `mapstructure:"learning_rate" validate:"gt=0"`
	Lambda       float32 `mapstructure:"lambda" validate:"gte=0"`
	Epoch        int     `mapstructure:"epoch" validate:"gt=0"`
	StopWindow   int     `mapstructure:"stop_window" validate:"gte=0"`
	Norm         bool    `mapstructure:"norm"`
	Jobs         int     `mapstructure:"jobs" validate:"gte=0"`
	Seed         int64   `mapstructure:"seed"`
	InitStdDev   float32 `mapstructure:"init_std_dev" validate:"gt=0"`
}

func setDefault(v *viper.Viper) {
	defaults := model.NewHyperParam()
	v.SetDefault("task.split_ratio", 0)
	v.SetDefault("model.score", defaults.ScoreFunc)
	v.SetDefault("model.loss", defaults.LossFunc)
	v.SetDefault("model.k", defaults.NumK)
	v.SetDefault("train.learning_rate", defaults.LearningRate)
	v.SetDefault("train.lambda", defaults.ReguLambda)
	v.SetDefault("train.epoch", defaults.Epoch)
	v.SetDefault("train.stop_window", defaults.StopWindow)
	v.SetDefault("train.norm", defaults.Norm)
	v.SetDefault("train.jobs", defaults.Jobs)
	v.SetDefault("train.seed", defaults.Seed)
	v.SetDefault("train.init_std_dev", defaults.InitStdDev)
}

// LoadConfig reads and validates a TOML configuration file. Environment
// variables of the form FLASH_TRAIN_EPOCH override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("flash")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Annotatef(err, "failed to read config file %s", path)
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Annotatef(err, "failed to parse config file %s", path)
	}
	if err := validator.New().Struct(&conf); err != nil {
		return nil, errors.Annotatef(err, "invalid config file %s", path)
	}
	return &conf, nil
}

// HyperParam converts the configuration into the hyper-parameters of the
// training core. Feature and field counts come from data, not from the file,
// so the caller fills them before validation.
func (conf *Config) HyperParam() model.HyperParam {
	hp := model.NewHyperParam()
	hp.ScoreFunc = conf.Model.Score
	hp.LossFunc = conf.Model.Loss
	hp.NumK = conf.Model.K
	hp.LearningRate = conf.Train.LearningRate
	hp.ReguLambda = conf.Train.Lambda
	hp.Epoch = conf.Train.Epoch
	hp.StopWindow = conf.Train.StopWindow
	hp.Norm = conf.Train.Norm
	if conf.Train.Jobs > 0 {
		hp.Jobs = conf.Train.Jobs
	}
	hp.Seed = conf.Train.Seed
	hp.InitStdDev = conf.Train.InitStdDev
	return hp
}
