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

package flash

import (
	"bytes"
	"testing"
	"time"

	"github.com/cbmgr/cbmgr/cbxact/exch"
)

func testExchanger(dev *simDevice) *exch.Exchanger {
	ecfg := exch.NewExchCfg()
	dev.rspID = ecfg.RxID
	return exch.NewExchanger(dev, ecfg)
}

func TestReadSpansFrames(t *testing.T) {
	dev := newSimDevice(0)
	want := make([]byte, 20)
	for i := range want {
		want[i] = byte(i)
		dev.flash[testBase+uint32(i)] = byte(i)
	}

	e := testExchanger(dev)
	got, err := Read(e, testBase, 20, exch.TxOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Read() = % x, want % x", got, want)
	}
}

func TestStatusReady(t *testing.T) {
	e := testExchanger(newSimDevice(0))
	if err := Status(e, exch.TxOptions{Timeout: time.Second}); err != nil {
		t.Errorf("Status() error: %v", err)
	}
}

func TestJumpToleratesSilence(t *testing.T) {
	dev := newSimDevice(0)
	dev.silentJump = true

	e := testExchanger(dev)
	err := Jump(e, exch.TxOptions{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Errorf("Jump() error: %v, want silence tolerated", err)
	}
}

func TestEraseOp(t *testing.T) {
	dev := newSimDevice(0)
	dev.flash[testBase] = 0x42

	e := testExchanger(dev)
	if err := Erase(e, exch.TxOptions{Timeout: time.Second}); err != nil {
		t.Fatalf("Erase() error: %v", err)
	}
	if dev.readByte(testBase) != 0xFF {
		t.Error("flash not erased")
	}
}
