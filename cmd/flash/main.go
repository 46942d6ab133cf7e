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

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flash-ml/flash/base/log"
	"github.com/flash-ml/flash/cmd/version"
	"github.com/flash-ml/flash/config"
	"github.com/flash-ml/flash/data"
	"github.com/flash-ml/flash/loss"
	"github.com/flash-ml/flash/model"
	"github.com/flash-ml/flash/train"
)

var rootCommand = &cobra.Command{
	Use:   "flash",
	Short: "Fast sparse linear, FM and FFM training on multiple cores.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

var trainCommand = &cobra.Command{
	Use:   "train",
	Short: "Fit a model from a TOML configuration file.",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		configPath, _ := cmd.Flags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		if err := runTrain(cmd.Context(), conf); err != nil {
			log.Logger().Fatal("training failed", zap.Error(err))
		}
	},
}

var predictCommand = &cobra.Command{
	Use:   "predict",
	Short: "Score a dataset with a saved model.",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		modelFile, _ := cmd.Flags().GetString("model-file")
		inputFile, _ := cmd.Flags().GetString("input")
		outputFile, _ := cmd.Flags().GetString("output")
		useSigmoid, _ := cmd.Flags().GetBool("sigmoid")
		useSign, _ := cmd.Flags().GetBool("sign")
		if err := runPredict(modelFile, inputFile, outputFile, useSigmoid, useSign); err != nil {
			log.Logger().Fatal("prediction failed", zap.Error(err))
		}
	},
}

func init() {
	rootCommand.PersistentFlags().BoolP("version", "v", false, "flash version")
	for _, cmd := range []*cobra.Command{trainCommand, predictCommand} {
		log.AddFlags(cmd.Flags())
		cmd.Flags().Bool("debug", false, "use debug log mode")
	}
	trainCommand.Flags().StringP("config", "c", "flash.toml", "configuration file path")
	predictCommand.Flags().StringP("model-file", "m", "", "path of the saved model")
	predictCommand.Flags().StringP("input", "i", "", "path of the dataset to score")
	predictCommand.Flags().StringP("output", "o", "", "path of the output file (default stdout)")
	predictCommand.Flags().Bool("sigmoid", false, "map raw scores through the sigmoid function")
	predictCommand.Flags().Bool("sign", false, "map raw scores to 0/1 labels")
	_ = predictCommand.MarkFlagRequired("model-file")
	_ = predictCommand.MarkFlagRequired("input")
	rootCommand.AddCommand(trainCommand, predictCommand)
}

func main() {
	defer log.CloseLogger()
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// loadMatrix reads a dataset file with a progress bar over the raw bytes.
func loadMatrix(path string) (*data.DMatrix, error) {
	format, err := data.DetectFormat(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Trace(err)
	}
	pbReader := progressbar.NewReader(file, progressbar.DefaultBytes(
		stat.Size(),
		"Loading "+filepath.Base(path),
	))
	matrix, err := data.Parse(&pbReader, format)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to load %s", path)
	}
	log.Logger().Info("loaded dataset",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("samples", matrix.Count()),
		zap.Int("positive_samples", matrix.PositiveCount()),
		zap.Int("num_feature", matrix.NumFeature()),
		zap.Int("num_field", matrix.NumField()))
	return matrix, nil
}

func runTrain(ctx context.Context, conf *config.Config) error {
	trainMatrix, err := loadMatrix(conf.Task.Train)
	if err != nil {
		return errors.Trace(err)
	}

	var validMatrix *data.DMatrix
	if conf.Task.Validation != "" {
		if validMatrix, err = loadMatrix(conf.Task.Validation); err != nil {
			return errors.Trace(err)
		}
	} else if conf.Task.SplitRatio > 0 {
		trainMatrix, validMatrix = trainMatrix.Split(conf.Task.SplitRatio, conf.Train.Seed)
	}

	hp := conf.HyperParam()
	hp.NumFeature = trainMatrix.NumFeature()
	hp.NumField = trainMatrix.NumField()
	if validMatrix != nil {
		hp.NumFeature = max(hp.NumFeature, validMatrix.NumFeature())
		hp.NumField = max(hp.NumField, validMatrix.NumField())
	}

	solver, err := train.NewSolver(hp)
	if err != nil {
		return errors.Trace(err)
	}
	defer solver.Close()

	if conf.Task.Folds >= 2 {
		_, err := solver.CrossValidate(ctx, trainMatrix, conf.Task.Folds)
		return errors.Trace(err)
	}

	trainReader := data.NewInMemoryReader(trainMatrix, 0)
	var validReader data.Reader
	if validMatrix != nil {
		validReader = data.NewInMemoryReader(validMatrix, 0)
	}
	result := solver.Train(ctx, trainReader, validReader)
	log.Logger().Info("training finished",
		zap.String("reason", string(result.Reason)),
		zap.Int("best_epoch", result.BestEpoch+1),
		zap.Float32("best_loss", result.BestLoss))
	if validReader != nil {
		logScore(hp, solver.Evaluate(validReader, result.Model))
	}

	if conf.Task.ModelFile != "" {
		if err := result.Model.Save(conf.Task.ModelFile); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("saved model", zap.String("path", conf.Task.ModelFile))
	}
	return nil
}

func logScore(hp model.HyperParam, score train.Score) {
	if hp.LossFunc == model.LossSquared {
		log.Logger().Info("validation metrics", zap.Float32("rmse", score.RMSE))
		return
	}
	log.Logger().Info("validation metrics",
		zap.Float32("accuracy", score.Accuracy),
		zap.Float32("precision", score.Precision),
		zap.Float32("recall", score.Recall),
		zap.Float32("auc", score.AUC))
}

func runPredict(modelFile, inputFile, outputFile string, useSigmoid, useSign bool) error {
	m, err := model.Load(modelFile)
	if err != nil {
		return errors.Trace(err)
	}
	matrix, err := loadMatrix(inputFile)
	if err != nil {
		return errors.Trace(err)
	}
	if matrix.NumFeature() > m.NumFeature {
		return errors.Errorf("dataset has %d features but the model was trained with %d",
			matrix.NumFeature(), m.NumFeature)
	}

	hp := model.NewHyperParam()
	hp.ScoreFunc = m.ScoreFunc
	hp.NumFeature = m.NumFeature
	hp.NumField = m.NumField
	hp.NumK = m.NumK
	solver, err := train.NewSolver(hp)
	if err != nil {
		return errors.Trace(err)
	}
	defer solver.Close()

	predictions := solver.Predict(data.NewInMemoryReader(matrix, 0), m)
	switch {
	case useSign:
		loss.Sign(predictions, predictions)
	case useSigmoid:
		loss.Sigmoid(predictions, predictions)
	}

	out := os.Stdout
	if outputFile != "" {
		if out, err = os.Create(outputFile); err != nil {
			return errors.Trace(err)
		}
		defer out.Close()
	}
	writer := bufio.NewWriter(out)
	for _, p := range predictions {
		if _, err := writer.WriteString(strconv.FormatFloat(float64(p), 'g', -1, 32) + "\n"); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Flush())
}
