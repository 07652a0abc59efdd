/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package chunk splits a firmware image into fixed-size write units aligned
// to the device's physical flash write granularity.
package chunk

import "fmt"

// Erased-flash fill value used for padding.
const FillByte = 0xFF

// Pad appends the erased-flash fill value until the data length is a
// multiple of unit.  If the input is already aligned the input is returned
// unchanged.  unit must be positive.
func Pad(data []byte, unit int) []byte {
	if unit <= 0 {
		return data
	}

	rem := len(data) % unit
	if rem == 0 {
		return data
	}

	padded := make([]byte, len(data), len(data)+unit-rem)
	copy(padded, data)
	for i := 0; i < unit-rem; i++ {
		padded = append(padded, FillByte)
	}

	return padded
}

// Chunker yields consecutive fixed-size slices of a padded image.  It does
// not pad implicitly; the caller must Pad first so that a short final chunk
// cannot silently mask an alignment bug.
type Chunker struct {
	data []byte
	size int
	off  int
}

func NewChunker(data []byte, size int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", size)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf(
			"data length %d is not a multiple of chunk size %d; pad first",
			len(data), size)
	}

	return &Chunker{
		data: data,
		size: size,
	}, nil
}

// Next returns the next chunk, or false when the sequence is exhausted.
// The returned slice aliases the underlying image; callers must not modify
// it.
func (c *Chunker) Next() ([]byte, bool) {
	if c.off >= len(c.data) {
		return nil, false
	}

	chunk := c.data[c.off : c.off+c.size]
	c.off += c.size
	return chunk, true
}

// Rewind restarts the sequence from the beginning.
func (c *Chunker) Rewind() {
	c.off = 0
}

// Count reports the total number of chunks in the sequence.
func (c *Chunker) Count() int {
	return len(c.data) / c.size
}

// Offset reports the byte offset of the next chunk to be produced.
func (c *Chunker) Offset() int {
	return c.off
}
