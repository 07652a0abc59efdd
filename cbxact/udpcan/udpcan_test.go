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

package udpcan

import (
	"testing"

	"github.com/cbmgr/cbmgr/cbxact/xport"
)

func TestDatagramRoundTrip(t *testing.T) {
	frames := []xport.Frame{
		xport.NewFrame(0x701, false, []byte{0x01}),
		xport.NewFrame(0x708, false, []byte{0x15, 1, 2, 3, 4, 5, 6, 7}),
		xport.NewFrame(0x18DAF110, true, []byte{0xDE, 0xAD}),
	}

	for _, f := range frames {
		b := EncodeDatagram(f)
		if len(b) != DATAGRAM_LEN {
			t.Fatalf("datagram length = %d, want %d", len(b), DATAGRAM_LEN)
		}

		got, err := DecodeDatagram(b)
		if err != nil {
			t.Fatalf("DecodeDatagram() error: %v", err)
		}
		if got != f {
			t.Errorf("round trip = %+v, want %+v", got, f)
		}
	}
}

func TestDecodeDatagramBadLength(t *testing.T) {
	for _, n := range []int{0, 5, DATAGRAM_LEN - 1, DATAGRAM_LEN + 1} {
		if _, err := DecodeDatagram(make([]byte, n)); err == nil {
			t.Errorf("DecodeDatagram(len=%d): expected error", n)
		}
	}
}
