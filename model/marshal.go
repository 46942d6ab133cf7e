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
	"encoding/binary"
	"io"
	"os"

	"github.com/juju/errors"

	"github.com/flash-ml/flash/base/encoding"
)

const header = "flash"

type shape struct {
	ScoreFunc  string
	NumFeature int
	NumField   int
	NumK       int
}

// Marshal writes the model to a byte stream.
func (m *Model) Marshal(w io.Writer) error {
	// write header
	if err := encoding.WriteString(w, header); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, shape{
		ScoreFunc:  m.ScoreFunc,
		NumFeature: m.NumFeature,
		NumField:   m.NumField,
		NumK:       m.NumK,
	}); err != nil {
		return errors.Trace(err)
	}
	// write scalars
	if err := binary.Write(w, binary.LittleEndian, m.Bias); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.BiasCache); err != nil {
		return errors.Trace(err)
	}
	// write vectors
	for _, v := range [][]float32{m.W, m.WCache, m.V, m.VCache} {
		if err := encoding.WriteVector(w, v); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal reads the model from a byte stream.
func (m *Model) Unmarshal(r io.Reader) error {
	// read header
	name, err := encoding.ReadString(r)
	if err != nil {
		return errors.Trace(err)
	}
	if name != header {
		return errors.Errorf("unknown model header %q", name)
	}
	var s shape
	if err = encoding.ReadGob(r, &s); err != nil {
		return errors.Trace(err)
	}
	m.ScoreFunc = s.ScoreFunc
	m.NumFeature = s.NumFeature
	m.NumField = s.NumField
	m.NumK = s.NumK
	// read scalars
	if err = binary.Read(r, binary.LittleEndian, &m.Bias); err != nil {
		return errors.Trace(err)
	}
	if err = binary.Read(r, binary.LittleEndian, &m.BiasCache); err != nil {
		return errors.Trace(err)
	}
	// read vectors
	for _, v := range []*[]float32{&m.W, &m.WCache, &m.V, &m.VCache} {
		if *v, err = encoding.ReadVector(r); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Save writes the model to a file.
func (m *Model) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	return m.Marshal(file)
}

// Load reads a model from a file.
func Load(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	m := new(Model)
	if err = m.Unmarshal(file); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}
