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

package data

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"

	"github.com/flash-ml/flash/base"
)

// Split divides the matrix into a training set and a test set by random
// sampling without replacement.
func (m *DMatrix) Split(ratio float32, seed int64) (*DMatrix, *DMatrix) {
	trainSet, testSet := new(DMatrix), new(DMatrix)
	numTestSize := int(float32(m.Count()) * ratio)
	rng := base.NewRandomGenerator(seed)
	sampledIndex := mapset.NewSet(rng.Sample(0, m.Count(), numTestSize)...)
	for i := 0; i < m.Count(); i++ {
		if sampledIndex.Contains(i) {
			testSet.Append(m.Y[i], m.Rows[i])
		} else {
			trainSet.Append(m.Y[i], m.Rows[i])
		}
	}
	return trainSet, testSet
}

// Fold is one rotation of k-fold cross-validation.
type Fold = lo.Tuple2[*DMatrix, *DMatrix]

// KFold divides the matrix into k (train, test) pairs. Rows are shuffled
// once; fold i holds out the i-th contiguous chunk of the shuffled order, so
// every row appears in exactly one test set.
func (m *DMatrix) KFold(k int, seed int64) []Fold {
	if k < 2 {
		panic("data: k-fold requires k >= 2")
	}
	rng := base.NewRandomGenerator(seed)
	perm := rng.Perm(m.Count())
	folds := make([]Fold, k)
	foldSize := m.Count() / k
	begin := 0
	for i := 0; i < k; i++ {
		end := begin + foldSize
		if i < m.Count()%k {
			end++
		}
		trainSet, testSet := new(DMatrix), new(DMatrix)
		for j, row := range perm {
			if j >= begin && j < end {
				testSet.Append(m.Y[row], m.Rows[row])
			} else {
				trainSet.Append(m.Y[row], m.Rows[row])
			}
		}
		folds[i] = lo.T2(trainSet, testSet)
		begin = end
	}
	return folds
}
