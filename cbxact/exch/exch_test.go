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

package exch

import (
	"fmt"
	"testing"
	"time"

	"github.com/cbmgr/cbmgr/cbxact/blp"
	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
	"github.com/cbmgr/cbmgr/cbxact/xport"
)

// loopXport feeds each transmitted frame to a reply function and delivers
// whatever frames it returns.
type loopXport struct {
	rxCb    xport.RxFn
	replyFn func(f xport.Frame) []xport.Frame
	txed    []xport.Frame
	txErr   error
}

func (lx *loopXport) Start() error          { return nil }
func (lx *loopXport) Stop() error           { return nil }
func (lx *loopXport) SetRxCb(cb xport.RxFn) { lx.rxCb = cb }

func (lx *loopXport) Tx(f xport.Frame) error {
	if lx.txErr != nil {
		return lx.txErr
	}
	lx.txed = append(lx.txed, f)
	if lx.replyFn != nil {
		for _, rf := range lx.replyFn(f) {
			lx.rxCb(rf)
		}
	}
	return nil
}

func ackFrame(id uint32) xport.Frame {
	return xport.NewFrame(id, false, []byte{blp.BLP_RSP_ACK})
}

func TestTxRxAck(t *testing.T) {
	cfg := NewExchCfg()
	lx := &loopXport{
		replyFn: func(f xport.Frame) []xport.Frame {
			return []xport.Frame{ackFrame(cfg.RxID)}
		},
	}
	e := NewExchanger(lx, cfg)

	rsp, err := e.TxRx(&blp.EraseFlashCmd{}, TxOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("TxRx() error: %v", err)
	}
	if _, ok := rsp.(*blp.AckRsp); !ok {
		t.Fatalf("rsp = %T, want *blp.AckRsp", rsp)
	}

	if len(lx.txed) != 1 {
		t.Fatalf("tx count = %d, want 1", len(lx.txed))
	}
	if lx.txed[0].ID != cfg.TxID {
		t.Errorf("tx id = 0x%x, want 0x%x", lx.txed[0].ID, cfg.TxID)
	}
}

func TestTxRxTimeout(t *testing.T) {
	lx := &loopXport{}
	e := NewExchanger(lx, NewExchCfg())

	start := time.Now()
	_, err := e.TxRx(&blp.GetStatusCmd{},
		TxOptions{Timeout: 50 * time.Millisecond})
	if !cbxutil.IsRspTimeout(err) {
		t.Fatalf("error = %v, want RspTimeoutError", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("TxRx() returned before the deadline")
	}
}

func TestTxRxIgnoresUnrelatedSenders(t *testing.T) {
	cfg := NewExchCfg()
	lx := &loopXport{
		replyFn: func(f xport.Frame) []xport.Frame {
			return []xport.Frame{
				// Telemetry from other nodes on the shared bus.
				xport.NewFrame(0x123, false, []byte{0xAA, 0xBB}),
				xport.NewFrame(0x456, false, []byte{blp.BLP_RSP_NACK, 1}),
				ackFrame(cfg.RxID),
			}
		},
	}
	e := NewExchanger(lx, cfg)

	rsp, err := e.TxRx(&blp.EraseFlashCmd{}, TxOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("TxRx() error: %v", err)
	}
	if _, ok := rsp.(*blp.AckRsp); !ok {
		t.Fatalf("rsp = %T, want *blp.AckRsp", rsp)
	}
}

func TestTxRxDiscardsStaleResponse(t *testing.T) {
	cfg := NewExchCfg()
	lx := &loopXport{}
	e := NewExchanger(lx, cfg)

	// A late response from a previous round trip sits in the queue.
	e.dispatch(xport.NewFrame(cfg.RxID, false, []byte{blp.BLP_RSP_NACK, 3}))

	lx.replyFn = func(f xport.Frame) []xport.Frame {
		return []xport.Frame{ackFrame(cfg.RxID)}
	}

	rsp, err := e.TxRx(&blp.EraseFlashCmd{}, TxOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("TxRx() error: %v", err)
	}
	if _, ok := rsp.(*blp.AckRsp); !ok {
		t.Fatalf("rsp = %T, want *blp.AckRsp; stale NACK not drained", rsp)
	}
}

func TestTxRxDataLenFromRequest(t *testing.T) {
	cfg := NewExchCfg()
	lx := &loopXport{
		replyFn: func(f xport.Frame) []xport.Frame {
			return []xport.Frame{
				xport.NewFrame(cfg.RxID, false,
					[]byte{blp.BLP_RSP_DATA, 1, 2, 3, 4, 5, 6, 7}),
			}
		},
	}
	e := NewExchanger(lx, cfg)

	rsp, err := e.TxRx(&blp.ReadFlashCmd{Addr: 0x08008000, Len: 4},
		TxOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("TxRx() error: %v", err)
	}
	d, ok := rsp.(*blp.DataRsp)
	if !ok {
		t.Fatalf("rsp = %T, want *blp.DataRsp", rsp)
	}
	if len(d.Data) != 4 {
		t.Errorf("data length = %d, want 4", len(d.Data))
	}
}

func TestTxRxXportError(t *testing.T) {
	lx := &loopXport{
		txErr: fmt.Errorf("port gone"),
	}
	e := NewExchanger(lx, NewExchCfg())

	_, err := e.TxRx(&blp.EraseFlashCmd{}, TxOptions{Timeout: time.Second})
	if !cbxutil.IsXport(err) {
		t.Fatalf("error = %v, want XportError", err)
	}
}
