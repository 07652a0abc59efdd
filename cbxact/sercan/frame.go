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

package sercan

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/joaojeronimo/go-crc16"

	"github.com/cbmgr/cbmgr/cbxact/xport"
)

// Line format spoken by the serial bus adapter firmware, one frame per
// line:
//
//	t<ID:8 hex><DATA:16 hex><CRC:4 hex>\n     standard addressing
//	T<ID:8 hex><DATA:16 hex><CRC:4 hex>\n     extended addressing
//
// The CRC-16 covers the 12 raw bytes of big-endian ID plus payload.  Bad
// lines are reported as errors so the receive loop can skip them.

const lineLen = 1 + 8 + 2*xport.FRAME_LEN + 4

func rawBytes(f xport.Frame) []byte {
	raw := make([]byte, 4+xport.FRAME_LEN)
	binary.BigEndian.PutUint32(raw[0:4], f.ID)
	copy(raw[4:], f.Data[:])
	return raw
}

// EncodeLine renders a frame as one adapter line, without the trailing
// newline.
func EncodeLine(f xport.Frame) []byte {
	prefix := byte('t')
	if f.Extended {
		prefix = 'T'
	}

	raw := rawBytes(f)
	line := make([]byte, 0, lineLen)
	line = append(line, prefix)
	line = append(line, []byte(fmt.Sprintf("%08X", f.ID))...)
	line = append(line, []byte(strings.ToUpper(hex.EncodeToString(raw[4:])))...)
	line = append(line, []byte(fmt.Sprintf("%04X", crc16.Crc16(raw)))...)
	return line
}

// DecodeLine parses one adapter line back into a frame, verifying the CRC.
func DecodeLine(line []byte) (xport.Frame, error) {
	var f xport.Frame

	if len(line) != lineLen {
		return f, fmt.Errorf("bad line length %d; want %d",
			len(line), lineLen)
	}

	switch line[0] {
	case 't':
	case 'T':
		f.Extended = true
	default:
		return f, fmt.Errorf("bad line prefix %q", line[0])
	}

	raw, err := hex.DecodeString(string(line[1 : 1+8+2*xport.FRAME_LEN]))
	if err != nil {
		return f, fmt.Errorf("bad hex in line: %s", err.Error())
	}

	wantCrc, err := hex.DecodeString(string(line[1+8+2*xport.FRAME_LEN:]))
	if err != nil {
		return f, fmt.Errorf("bad crc hex in line: %s", err.Error())
	}

	if crc16.Crc16(raw) != binary.BigEndian.Uint16(wantCrc) {
		return f, fmt.Errorf("crc mismatch; calculated=0x%04x received=0x%04x",
			crc16.Crc16(raw), binary.BigEndian.Uint16(wantCrc))
	}

	f.ID = binary.BigEndian.Uint32(raw[0:4])
	copy(f.Data[:], raw[4:])
	return f, nil
}
