// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vectorstore

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

var (
	vectorMUS     = ord.NewSliceSer[float32](varint.Float32)
	attributesMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

// RowMUS is the MUS serializer for Row.
var RowMUS rowMUS

type rowMUS struct{}

var _ mus.Serializer[Row] = RowMUS

func (rowMUS) Marshal(r Row, bs []byte) (n int) {
	n = ord.String.Marshal(r.ID, bs)
	n += vectorMUS.Marshal(r.Vector, bs[n:])
	n += attributesMUS.Marshal(r.Attributes, bs[n:])
	return
}

func (rowMUS) Unmarshal(bs []byte) (r Row, n int, err error) {
	var n1 int
	r.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	r.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Attributes, n1, err = attributesMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (rowMUS) Size(r Row) (size int) {
	size = ord.String.Size(r.ID)
	size += vectorMUS.Size(r.Vector)
	size += attributesMUS.Size(r.Attributes)
	return
}

func (rowMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = attributesMUS.Skip(bs[n:])
	n += n1
	return
}

// MarshalRow serializes a Row to bytes.
func MarshalRow(r Row) []byte {
	buf := make([]byte, RowMUS.Size(r))
	RowMUS.Marshal(r, buf)
	return buf
}

// UnmarshalRow deserializes a Row from bytes.
func UnmarshalRow(data []byte) (Row, error) {
	r, _, err := RowMUS.Unmarshal(data)
	return r, err
}
