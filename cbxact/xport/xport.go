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

// Package xport defines the bus frame and the transport interface the flash
// engine requires.  Concrete transports (serial bridge, UDP bridge) live in
// sibling packages.
package xport

import "fmt"

// Every bus frame carries exactly this many payload bytes.
const FRAME_LEN = 8

// Frame is one fixed-size message on the bus.  Immutable once constructed;
// short payloads are zero padded.
type Frame struct {
	// Logical channel the frame is addressed on.
	ID uint32

	// Extended (29-bit) vs. standard (11-bit) addressing.
	Extended bool

	Data [FRAME_LEN]byte
}

// NewFrame builds a frame from a payload of at most FRAME_LEN bytes,
// zero padding the remainder.
func NewFrame(id uint32, extended bool, payload []byte) Frame {
	f := Frame{
		ID:       id,
		Extended: extended,
	}
	copy(f.Data[:], payload)
	return f
}

func (f Frame) String() string {
	return fmt.Sprintf("id=0x%03x ext=%v data=% x", f.ID, f.Extended, f.Data)
}

// RxFn is invoked by a transport for every inbound frame, from the
// transport's receive goroutine.
type RxFn func(f Frame)

// Xport is a physical or bridged connection to the bus.  The flash engine
// only requires Tx plus delivery of inbound frames to the configured
// callback; retransmission and bus configuration are the transport's
// business.
type Xport interface {
	Start() error
	Stop() error

	Tx(f Frame) error
	SetRxCb(cb RxFn)
}
