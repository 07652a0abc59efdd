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

// Package exch implements the exchange primitive: exactly one request frame
// and its correlated response, bounded by a deadline.  The protocol is
// strictly one-outstanding-request-at-a-time; correlation is by source
// address only.
package exch

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cbmgr/cbmgr/cbxact/blp"
	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
	"github.com/cbmgr/cbmgr/cbxact/xport"
)

var DfltTxOptions = TxOptions{
	Timeout: 1 * time.Second,
}

type TxOptions struct {
	Timeout time.Duration
}

func NewTxOptions() TxOptions {
	return DfltTxOptions
}

func (opt *TxOptions) AfterTimeout() <-chan time.Time {
	if opt.Timeout == 0 {
		return nil
	} else {
		return time.After(opt.Timeout)
	}
}

// ExchCfg fixes the two logical addresses of a command/response pair: one
// for each direction.
type ExchCfg struct {
	// Host to device.
	TxID uint32

	// Device to host.  Only frames carrying this ID are accepted as
	// responses.
	RxID uint32

	Extended bool
}

func NewExchCfg() ExchCfg {
	return ExchCfg{
		TxID: 0x701,
		RxID: 0x708,
	}
}

// Exchanger performs single request/response round trips against a
// transport.  It is the sole consumer of inbound traffic on its transport;
// frames from other senders are discarded at dispatch.
type Exchanger struct {
	x   xport.Xport
	cfg ExchCfg

	frameChan chan xport.Frame

	// Serializes round trips; the wire protocol cannot accept more than
	// one outstanding request.
	mtx sync.Mutex
}

func NewExchanger(x xport.Xport, cfg ExchCfg) *Exchanger {
	e := &Exchanger{
		x:         x,
		cfg:       cfg,
		frameChan: make(chan xport.Frame, 4),
	}
	x.SetRxCb(e.dispatch)
	return e
}

func (e *Exchanger) Cfg() ExchCfg {
	return e.cfg
}

// dispatch runs on the transport's receive goroutine.  Frames from
// unrelated senders do not reset any deadline; they are dropped here.
func (e *Exchanger) dispatch(f xport.Frame) {
	if f.ID != e.cfg.RxID {
		log.Debugf("Discarding frame from unrelated sender; %s", f.String())
		return
	}

	select {
	case e.frameChan <- f:
	default:
		log.Debugf("Dropping response with no outstanding request; %s",
			f.String())
	}
}

// drainStale discards responses left over from a previous, timed-out round
// trip so they cannot be miscorrelated with the next request.
func (e *Exchanger) drainStale() {
	for {
		select {
		case f := <-e.frameChan:
			log.Debugf("Discarding stale response; %s", f.String())
		default:
			return
		}
	}
}

// TxRx sends one command and blocks until a response arrives from the
// device address or the deadline elapses.  No retransmission happens at
// this layer.
//
// For ReadFlash commands the expected data length is taken from the
// request, since DATA responses are not self-describing.
func (e *Exchanger) TxRx(c blp.Cmd, opt TxOptions) (blp.Rsp, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	payload, err := blp.Encode(c)
	if err != nil {
		return nil, err
	}

	dataLen := 0
	if rc, ok := c.(*blp.ReadFlashCmd); ok {
		dataLen = int(rc.Len)
	}

	e.drainStale()

	f := xport.Frame{
		ID:       e.cfg.TxID,
		Extended: e.cfg.Extended,
		Data:     payload,
	}
	log.Debugf("Tx frame; %s", f.String())
	if err := e.x.Tx(f); err != nil {
		return nil, cbxutil.FmtXportError("tx failed: %s", err.Error())
	}

	select {
	case rf := <-e.frameChan:
		log.Debugf("Rx frame; %s", rf.String())
		return blp.DecodeRsp(rf.Data, dataLen), nil

	case <-opt.AfterTimeout():
		return nil, cbxutil.FmtRspTimeoutError(
			"no response to command 0x%02x within %s", c.Op(), opt.Timeout)
	}
}
