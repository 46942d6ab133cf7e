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
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Format of an on-disk dataset file.
type Format string

const (
	FormatLibSVM Format = "libsvm" // label index:value ...
	FormatLibFFM Format = "libffm" // label field:index:value ...
)

// DetectFormat sniffs the format from the first non-empty line.
func DetectFormat(path string) (Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Trace(err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		switch strings.Count(fields[1], ":") {
		case 1:
			return FormatLibSVM, nil
		case 2:
			return FormatLibFFM, nil
		}
		break
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Trace(err)
	}
	return "", errors.Errorf("unrecognized data format in %s", path)
}

// LoadFile loads a libSVM or libFFM file, detecting the format from its
// first line.
func LoadFile(path string) (*DMatrix, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	return Parse(file, format)
}

// Parse reads samples in the given format until EOF.
func Parse(r io.Reader, format Format) (*DMatrix, error) {
	matrix := new(DMatrix)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		label, err := strconv.ParseFloat(fields[0], 32)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d: invalid label", lineNo)
		}
		row := make(SparseRow, 0, len(fields)-1)
		for _, field := range fields[1:] {
			kv := strings.Split(field, ":")
			switch format {
			case FormatLibSVM:
				if len(kv) != 2 {
					return nil, errors.Errorf("line %d: expected index:value, got %q", lineNo, field)
				}
				feature, err := strconv.ParseUint(kv[0], 10, 32)
				if err != nil {
					return nil, errors.Annotatef(err, "line %d: invalid feature index", lineNo)
				}
				value, err := strconv.ParseFloat(kv[1], 32)
				if err != nil {
					return nil, errors.Annotatef(err, "line %d: invalid feature value", lineNo)
				}
				row = append(row, Node{Feature: uint32(feature), Value: float32(value)})
			case FormatLibFFM:
				if len(kv) != 3 {
					return nil, errors.Errorf("line %d: expected field:index:value, got %q", lineNo, field)
				}
				fieldIndex, err := strconv.ParseUint(kv[0], 10, 32)
				if err != nil {
					return nil, errors.Annotatef(err, "line %d: invalid field index", lineNo)
				}
				feature, err := strconv.ParseUint(kv[1], 10, 32)
				if err != nil {
					return nil, errors.Annotatef(err, "line %d: invalid feature index", lineNo)
				}
				value, err := strconv.ParseFloat(kv[2], 32)
				if err != nil {
					return nil, errors.Annotatef(err, "line %d: invalid feature value", lineNo)
				}
				row = append(row, Node{Feature: uint32(feature), Field: uint32(fieldIndex), Value: float32(value)})
			default:
				return nil, errors.Errorf("unknown format %q", format)
			}
		}
		matrix.Append(float32(label), row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if format == FormatLibFFM {
		matrix.HasField = true
	}
	return matrix, nil
}
