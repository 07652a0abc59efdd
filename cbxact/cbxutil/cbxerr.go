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

package cbxutil

import (
	"fmt"
)

// Represents an exchange timeout; request sent, but no response received
// within the deadline.
type RspTimeoutError struct {
	Text string
}

func NewRspTimeoutError(text string) *RspTimeoutError {
	return &RspTimeoutError{
		Text: text,
	}
}

func FmtRspTimeoutError(format string, args ...interface{}) *RspTimeoutError {
	return NewRspTimeoutError(fmt.Sprintf(format, args...))
}

func (e *RspTimeoutError) Error() string {
	return e.Text
}

func IsRspTimeout(err error) bool {
	_, ok := err.(*RspTimeoutError)
	return ok
}

// Represents a low-level transport error.
type XportError struct {
	Text string
}

func NewXportError(text string) *XportError {
	return &XportError{text}
}

func FmtXportError(format string, args ...interface{}) *XportError {
	return NewXportError(fmt.Sprintf(format, args...))
}

func (e *XportError) Error() string {
	return e.Text
}

func IsXport(err error) bool {
	if err == nil {
		return false
	}

	_, ok := err.(*XportError)
	return ok
}

// Indicates an attempt to transition to the already-current state.
type AlreadyError struct {
	Text string
}

func NewAlreadyError(text string) *AlreadyError {
	return &AlreadyError{text}
}

func (err *AlreadyError) Error() string {
	return err.Text
}

func IsAlready(err error) bool {
	if err == nil {
		return false
	}

	_, ok := err.(*AlreadyError)
	return ok
}

// Represents a NACK from the device.  The code is diagnostic only; every
// NACK is fatal to the step that provoked it.
type DeviceNackError struct {
	Step string
	Addr uint32
	Code uint8
	Text string
}

func NewDeviceNackError(step string, addr uint32, code uint8,
	text string) *DeviceNackError {

	return &DeviceNackError{
		Step: step,
		Addr: addr,
		Code: code,
		Text: text,
	}
}

func (e *DeviceNackError) Error() string {
	return e.Text
}

func IsDeviceNack(err error) bool {
	_, ok := err.(*DeviceNackError)
	return ok
}

// Represents a read-back verification failure at a specific address.
type VerifyMismatchError struct {
	Addr     uint32
	Expected []byte
	Actual   []byte
}

func NewVerifyMismatchError(addr uint32, expected []byte,
	actual []byte) *VerifyMismatchError {

	return &VerifyMismatchError{
		Addr:     addr,
		Expected: expected,
		Actual:   actual,
	}
}

func (e *VerifyMismatchError) Error() string {
	return fmt.Sprintf("verify mismatch at 0x%08x; expected=% x actual=% x",
		e.Addr, e.Expected, e.Actual)
}

func IsVerifyMismatch(err error) bool {
	_, ok := err.(*VerifyMismatchError)
	return ok
}

// Represents a response whose opcode does not answer the outstanding
// request.
type UnexpectedRspError struct {
	Step   string
	Opcode uint8
}

func NewUnexpectedRspError(step string, opcode uint8) *UnexpectedRspError {
	return &UnexpectedRspError{
		Step:   step,
		Opcode: opcode,
	}
}

func (e *UnexpectedRspError) Error() string {
	return fmt.Sprintf("unexpected response opcode 0x%02x during %s",
		e.Opcode, e.Step)
}

func IsUnexpectedRsp(err error) bool {
	_, ok := err.(*UnexpectedRspError)
	return ok
}
