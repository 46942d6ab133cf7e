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

package floats

import (
	"github.com/chewxy/math32"
)

// Zero fills zeros in a slice of 32-bit floats.
func Zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}

// Fill fills a constant in a slice of 32-bit floats.
func Fill(a []float32, c float32) {
	for i := range a {
		a[i] = c
	}
}

// MulConst multiplies a vector with a const: dst = dst * c
func MulConst(dst []float32, c float32) {
	for i := range dst {
		dst[i] *= c
	}
}

// MulConstAdd multiplies a vector and a const, then adds to dst: dst = dst + a * c
func MulConstAdd(a []float32, c float32, dst []float32) {
	if len(a) != len(dst) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		dst[i] += a[i] * c
	}
}

// Dot two vectors.
func Dot(a, b []float32) (ret float32) {
	if len(a) != len(b) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		ret += a[i] * b[i]
	}
	return
}

// Sum returns the sum of a vector.
func Sum(a []float32) (ret float32) {
	for i := range a {
		ret += a[i]
	}
	return
}

// Mean returns the mean of a vector. The mean of an empty vector is NaN.
func Mean(a []float32) float32 {
	if len(a) == 0 {
		return math32.NaN()
	}
	return Sum(a) / float32(len(a))
}

// StdDev returns the sample standard deviation of a vector.
func StdDev(a []float32) float32 {
	if len(a) < 2 {
		return 0
	}
	mean := Mean(a)
	var sum float32
	for _, v := range a {
		sum += (v - mean) * (v - mean)
	}
	return math32.Sqrt(sum / float32(len(a)-1))
}
