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

// Package udpcan reaches the bus through an Ethernet bridge that forwards
// one bus frame per UDP datagram.
package udpcan

import (
	"encoding/binary"
	"fmt"

	"github.com/cbmgr/cbmgr/cbxact/xport"
)

// Datagram layout: 1 flag byte (bit 0 = extended addressing), 4-byte
// big-endian ID, 8 payload bytes.
const DATAGRAM_LEN = 1 + 4 + xport.FRAME_LEN

const flagExtended = 0x01

func EncodeDatagram(f xport.Frame) []byte {
	b := make([]byte, DATAGRAM_LEN)
	if f.Extended {
		b[0] |= flagExtended
	}
	binary.BigEndian.PutUint32(b[1:5], f.ID)
	copy(b[5:], f.Data[:])
	return b
}

func DecodeDatagram(b []byte) (xport.Frame, error) {
	var f xport.Frame

	if len(b) != DATAGRAM_LEN {
		return f, fmt.Errorf("bad datagram length %d; want %d",
			len(b), DATAGRAM_LEN)
	}

	f.Extended = b[0]&flagExtended != 0
	f.ID = binary.BigEndian.Uint32(b[1:5])
	copy(f.Data[:], b[5:])
	return f, nil
}
