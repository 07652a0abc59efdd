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

package blp

import "fmt"

// Every frame on the bus carries exactly this many payload bytes.  Short
// payloads are zero padded on the wire.
const BLP_FRAME_LEN = 8

// One WriteChunk frame carries exactly this many image bytes.
const BLP_CHUNK_LEN = 4

// Maximum data bytes a single ReadFlash response can carry.
const BLP_READ_MAX_LEN = 7

// Command opcodes (host to device).
const (
	BLP_CMD_ERASE_FLASH = 0x01
	BLP_CMD_READ_FLASH  = 0x03
	BLP_CMD_JUMP_TO_APP = 0x04
	BLP_CMD_GET_STATUS  = 0x05
	BLP_CMD_SET_ADDRESS = 0x06
	BLP_CMD_WRITE_CHUNK = 0x07
)

// Response opcodes (device to host).  Disjoint from command opcodes.
const (
	BLP_RSP_ACK   = 0x10
	BLP_RSP_NACK  = 0x11
	BLP_RSP_READY = 0x14
	BLP_RSP_DATA  = 0x15
)

// ErrCode is the diagnostic code carried in byte 1 of a NACK response.
type ErrCode uint8

const (
	BLP_ERR_INVALID_CMD  ErrCode = 0x01
	BLP_ERR_INVALID_ADDR ErrCode = 0x02
	BLP_ERR_ERASE_FAIL   ErrCode = 0x03
	BLP_ERR_WRITE_FAIL   ErrCode = 0x04
	BLP_ERR_INVALID_LEN  ErrCode = 0x05
	BLP_ERR_CRC_MISMATCH ErrCode = 0x06
	BLP_ERR_NO_APP       ErrCode = 0x07
	BLP_ERR_TIMEOUT      ErrCode = 0x08
	BLP_ERR_FLASH_LOCKED ErrCode = 0x09
)

var errCodeStringMap = map[ErrCode]string{
	BLP_ERR_INVALID_CMD:  "invalid command",
	BLP_ERR_INVALID_ADDR: "invalid address",
	BLP_ERR_ERASE_FAIL:   "erase failure",
	BLP_ERR_WRITE_FAIL:   "write failure",
	BLP_ERR_INVALID_LEN:  "invalid length",
	BLP_ERR_CRC_MISMATCH: "crc mismatch",
	BLP_ERR_NO_APP:       "no valid application",
	BLP_ERR_TIMEOUT:      "timeout",
	BLP_ERR_FLASH_LOCKED: "flash locked",
}

func (e ErrCode) String() string {
	s := errCodeStringMap[e]
	if s == "" {
		return fmt.Sprintf("unknown(0x%02x)", uint8(e))
	}
	return s
}
