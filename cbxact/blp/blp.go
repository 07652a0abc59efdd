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

// Package blp implements the bootloader wire protocol: fixed 8-byte command
// and response frames exchanged with a device that buffers sub-word writes.
package blp

import (
	"encoding/binary"
	"fmt"
)

// Cmd is one of the closed set of requests the host may send.
type Cmd interface {
	Op() uint8
}

type EraseFlashCmd struct{}

type SetAddressCmd struct {
	Addr uint32
}

type WriteChunkCmd struct {
	Data [BLP_CHUNK_LEN]byte
}

type ReadFlashCmd struct {
	Addr uint32
	Len  uint8
}

type JumpToAppCmd struct{}

type GetStatusCmd struct{}

func (c *EraseFlashCmd) Op() uint8 { return BLP_CMD_ERASE_FLASH }
func (c *SetAddressCmd) Op() uint8 { return BLP_CMD_SET_ADDRESS }
func (c *WriteChunkCmd) Op() uint8 { return BLP_CMD_WRITE_CHUNK }
func (c *ReadFlashCmd) Op() uint8  { return BLP_CMD_READ_FLASH }
func (c *JumpToAppCmd) Op() uint8  { return BLP_CMD_JUMP_TO_APP }
func (c *GetStatusCmd) Op() uint8  { return BLP_CMD_GET_STATUS }

// Encode translates a command into its 8-byte wire representation.
//
// Layout: byte 0 is the opcode; multi-byte addresses are big-endian; the
// remainder is zero padding.  WriteChunk and ReadFlash carry an explicit
// length byte at offset 1 even though the chunk length is fixed.
func Encode(c Cmd) ([BLP_FRAME_LEN]byte, error) {
	var b [BLP_FRAME_LEN]byte
	b[0] = c.Op()

	switch c := c.(type) {
	case *EraseFlashCmd, *JumpToAppCmd, *GetStatusCmd:

	case *SetAddressCmd:
		binary.BigEndian.PutUint32(b[2:6], c.Addr)

	case *WriteChunkCmd:
		b[1] = BLP_CHUNK_LEN
		copy(b[2:2+BLP_CHUNK_LEN], c.Data[:])

	case *ReadFlashCmd:
		if c.Len < 1 || c.Len > BLP_READ_MAX_LEN {
			return b, fmt.Errorf("invalid read length %d; must be 1-%d",
				c.Len, BLP_READ_MAX_LEN)
		}
		b[1] = c.Len
		binary.BigEndian.PutUint32(b[2:6], c.Addr)

	default:
		return b, fmt.Errorf("unknown command type %T", c)
	}

	return b, nil
}

// DecodeCmd translates an 8-byte payload back into a command.  Returns nil
// for opcodes that are not commands.  Used by tests and by device
// simulations; the host side only ever decodes responses.
func DecodeCmd(b [BLP_FRAME_LEN]byte) Cmd {
	switch b[0] {
	case BLP_CMD_ERASE_FLASH:
		return &EraseFlashCmd{}

	case BLP_CMD_SET_ADDRESS:
		return &SetAddressCmd{
			Addr: binary.BigEndian.Uint32(b[2:6]),
		}

	case BLP_CMD_WRITE_CHUNK:
		c := &WriteChunkCmd{}
		copy(c.Data[:], b[2:2+BLP_CHUNK_LEN])
		return c

	case BLP_CMD_READ_FLASH:
		return &ReadFlashCmd{
			Addr: binary.BigEndian.Uint32(b[2:6]),
			Len:  b[1],
		}

	case BLP_CMD_JUMP_TO_APP:
		return &JumpToAppCmd{}

	case BLP_CMD_GET_STATUS:
		return &GetStatusCmd{}

	default:
		return nil
	}
}

// Rsp is one of the closed set of replies a device may send.  A response
// carries no identity of which command it answers; correlation is by source
// address and by the one-outstanding-request rule.
type Rsp interface {
	Op() uint8
}

type AckRsp struct{}

type ReadyRsp struct{}

type NackRsp struct {
	Err ErrCode
}

type DataRsp struct {
	Data []byte
}

// UnknownRsp represents an unrecognized opcode.  The codec never errors on
// stray traffic; callers decide whether to ignore it.
type UnknownRsp struct {
	Opcode uint8
}

func (r *AckRsp) Op() uint8     { return BLP_RSP_ACK }
func (r *ReadyRsp) Op() uint8   { return BLP_RSP_READY }
func (r *NackRsp) Op() uint8    { return BLP_RSP_NACK }
func (r *DataRsp) Op() uint8    { return BLP_RSP_DATA }
func (r *UnknownRsp) Op() uint8 { return r.Opcode }

// DecodeRsp translates an inbound 8-byte payload into a response.  A DATA
// response is not self-describing; the caller supplies the expected data
// length from the preceding ReadFlash request.
func DecodeRsp(b [BLP_FRAME_LEN]byte, dataLen int) Rsp {
	switch b[0] {
	case BLP_RSP_ACK:
		return &AckRsp{}

	case BLP_RSP_READY:
		return &ReadyRsp{}

	case BLP_RSP_NACK:
		return &NackRsp{
			Err: ErrCode(b[1]),
		}

	case BLP_RSP_DATA:
		if dataLen < 0 {
			dataLen = 0
		}
		if dataLen > BLP_READ_MAX_LEN {
			dataLen = BLP_READ_MAX_LEN
		}
		r := &DataRsp{
			Data: make([]byte, dataLen),
		}
		copy(r.Data, b[1:1+dataLen])
		return r

	default:
		return &UnknownRsp{
			Opcode: b[0],
		}
	}
}
