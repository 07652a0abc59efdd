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

	"github.com/cbmgr/cbmgr/cbxact/blp"
	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
	"github.com/cbmgr/cbmgr/cbxact/exch"
	"github.com/cbmgr/cbmgr/cbxact/xport"
)

// simDevice is an in-memory bootloader simulation wired in as a transport.
// It decodes each transmitted command, mutates its fake flash, and replies
// on the device-to-host ID.
type simDevice struct {
	rxCb  xport.RxFn
	rspID uint32

	flash    map[uint32]byte
	writePtr uint32

	// Ops seen, in order.  Lets tests assert what was never sent.
	ops []uint8

	// Fault injection.
	nackErase     blp.ErrCode
	muteAfter     int // stop acking write chunks after this many; -1 = never
	corruptAddr   uint32
	corrupted     bool
	silentJump    bool
	chunksWritten int
}

func newSimDevice(rspID uint32) *simDevice {
	return &simDevice{
		rspID:     rspID,
		flash:     map[uint32]byte{},
		muteAfter: -1,
	}
}

func (d *simDevice) Start() error          { return nil }
func (d *simDevice) Stop() error           { return nil }
func (d *simDevice) SetRxCb(cb xport.RxFn) { d.rxCb = cb }

func (d *simDevice) reply(payload []byte) {
	d.rxCb(xport.NewFrame(d.rspID, false, payload))
}

func (d *simDevice) readByte(addr uint32) byte {
	b, ok := d.flash[addr]
	if !ok {
		return 0xFF
	}
	if d.corrupted && addr == d.corruptAddr {
		return b ^ 0x01
	}
	return b
}

func (d *simDevice) Tx(f xport.Frame) error {
	cmd := blp.DecodeCmd(f.Data)
	if cmd == nil {
		return nil
	}
	d.ops = append(d.ops, cmd.Op())

	switch c := cmd.(type) {
	case *blp.GetStatusCmd:
		d.reply([]byte{blp.BLP_RSP_READY})

	case *blp.EraseFlashCmd:
		if d.nackErase != 0 {
			d.reply([]byte{blp.BLP_RSP_NACK, byte(d.nackErase)})
			return nil
		}
		d.flash = map[uint32]byte{}
		d.reply([]byte{blp.BLP_RSP_ACK})

	case *blp.SetAddressCmd:
		d.writePtr = c.Addr
		d.reply([]byte{blp.BLP_RSP_ACK})

	case *blp.WriteChunkCmd:
		if d.muteAfter >= 0 && d.chunksWritten >= d.muteAfter {
			return nil
		}
		for _, b := range c.Data {
			d.flash[d.writePtr] = b
			d.writePtr++
		}
		d.chunksWritten++
		d.reply([]byte{blp.BLP_RSP_ACK})

	case *blp.ReadFlashCmd:
		payload := []byte{blp.BLP_RSP_DATA}
		for i := uint32(0); i < uint32(c.Len); i++ {
			payload = append(payload, d.readByte(c.Addr+i))
		}
		d.reply(payload)

	case *blp.JumpToAppCmd:
		if d.silentJump {
			return nil
		}
		d.reply([]byte{blp.BLP_RSP_ACK})
	}

	return nil
}

func (d *simDevice) sawOp(op uint8) bool {
	for _, o := range d.ops {
		if o == op {
			return true
		}
	}
	return false
}

const testBase = uint32(0x08008000)

func testSession(t *testing.T, dev *simDevice, img []byte,
	mod func(*SessionCfg)) (*Session, error) {

	t.Helper()

	ecfg := exch.NewExchCfg()
	dev.rspID = ecfg.RxID
	e := exch.NewExchanger(dev, ecfg)

	cfg := NewSessionCfg()
	cfg.BaseAddr = testBase
	cfg.ChunkTimeout = 50 * time.Millisecond
	cfg.EraseTimeout = 50 * time.Millisecond
	cfg.JumpTimeout = 20 * time.Millisecond
	if mod != nil {
		mod(&cfg)
	}

	s, err := NewSession(e, img, cfg)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	return s, s.Run()
}

func TestSessionComplete(t *testing.T) {
	img := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	dev := newSimDevice(0)

	var progress [][2]int
	s, err := testSession(t, dev, img, func(cfg *SessionCfg) {
		cfg.ProgressCb = func(done, total int, elapsed time.Duration) {
			progress = append(progress, [2]int{done, total})
		}
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if s.State() != SESSION_STATE_COMPLETE {
		t.Fatalf("state = %s, want complete", s.State())
	}
	if s.TotalLen() != 12 || s.OrigLen() != 10 {
		t.Fatalf("TotalLen=%d OrigLen=%d, want 12/10",
			s.TotalLen(), s.OrigLen())
	}

	// The device must hold the padded image, fill bytes included.
	want := append(append([]byte{}, img...), 0xFF, 0xFF)
	var got []byte
	for i := uint32(0); i < 12; i++ {
		got = append(got, dev.readByte(testBase+i))
	}
	if !bytes.Equal(got, want) {
		t.Errorf("device flash = % x, want % x", got, want)
	}

	// Three chunks written, three verified.
	if len(progress) != 6 {
		t.Fatalf("progress calls = %d, want 6", len(progress))
	}
	for i, p := range progress {
		wantDone := (i%3 + 1) * 4
		if p[0] != wantDone || p[1] != 12 {
			t.Errorf("progress[%d] = %v, want {%d 12}", i, p, wantDone)
		}
	}
}

func TestSessionEraseNack(t *testing.T) {
	dev := newSimDevice(0)
	dev.nackErase = blp.BLP_ERR_ERASE_FAIL

	s, err := testSession(t, dev, []byte{1, 2, 3, 4}, nil)

	nack, ok := err.(*cbxutil.DeviceNackError)
	if !ok {
		t.Fatalf("error = %v, want DeviceNackError", err)
	}
	if nack.Code != uint8(blp.BLP_ERR_ERASE_FAIL) {
		t.Errorf("code = 0x%02x, want erase failure", nack.Code)
	}
	if nack.Step != "erasing" {
		t.Errorf("step = %q, want erasing", nack.Step)
	}
	if s.State() != SESSION_STATE_FAILED {
		t.Errorf("state = %s, want failed", s.State())
	}

	// The session must abort before ever addressing the device.
	if dev.sawOp(blp.BLP_CMD_SET_ADDRESS) {
		t.Error("SetAddress was sent after a failed erase")
	}
}

func TestSessionWriteTimeout(t *testing.T) {
	dev := newSimDevice(0)
	dev.muteAfter = 2

	s, err := testSession(t, dev, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		nil)

	if !cbxutil.IsRspTimeout(err) {
		t.Fatalf("error = %v, want RspTimeoutError", err)
	}
	if s.Offset() != 8 {
		t.Errorf("Offset() = %d, want 8 after 2 acked chunks", s.Offset())
	}
	if s.State() != SESSION_STATE_FAILED {
		t.Errorf("state = %s, want failed", s.State())
	}
}

func TestSessionVerifyMismatch(t *testing.T) {
	dev := newSimDevice(0)
	dev.corrupted = true
	dev.corruptAddr = testBase + 7

	_, err := testSession(t, dev, []byte{1, 2, 3, 4, 5, 6, 7, 8}, nil)

	mm, ok := err.(*cbxutil.VerifyMismatchError)
	if !ok {
		t.Fatalf("error = %v, want VerifyMismatchError", err)
	}
	if mm.Addr != testBase+4 {
		t.Errorf("mismatch addr = 0x%08x, want 0x%08x", mm.Addr, testBase+4)
	}
	if bytes.Equal(mm.Expected, mm.Actual) {
		t.Error("expected and actual bytes are equal")
	}

	// No jump after a failed verify.
	if dev.sawOp(blp.BLP_CMD_JUMP_TO_APP) {
		t.Error("JumpToApp was sent after a verify mismatch")
	}
}

func TestSessionJumpTimeoutTolerated(t *testing.T) {
	dev := newSimDevice(0)
	dev.silentJump = true

	s, err := testSession(t, dev, []byte{1, 2, 3, 4}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s.State() != SESSION_STATE_COMPLETE {
		t.Errorf("state = %s, want complete despite silent jump", s.State())
	}
}

func TestSessionNoVerify(t *testing.T) {
	dev := newSimDevice(0)

	_, err := testSession(t, dev, []byte{1, 2, 3, 4}, func(cfg *SessionCfg) {
		cfg.NoVerify = true
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if dev.sawOp(blp.BLP_CMD_READ_FLASH) {
		t.Error("ReadFlash was sent with NoVerify set")
	}
}

func TestSessionProbeDisabled(t *testing.T) {
	dev := newSimDevice(0)

	_, err := testSession(t, dev, []byte{1, 2, 3, 4}, func(cfg *SessionCfg) {
		cfg.Probe = false
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if dev.sawOp(blp.BLP_CMD_GET_STATUS) {
		t.Error("GetStatus was sent with Probe disabled")
	}
}

func TestSessionRejectsBadWriteUnit(t *testing.T) {
	e := exch.NewExchanger(newSimDevice(0), exch.NewExchCfg())

	cfg := NewSessionCfg()
	cfg.WriteUnit = 7
	if _, err := NewSession(e, []byte{1}, cfg); err == nil {
		t.Error("expected error for write unit not divisible by chunk size")
	}

	cfg = NewSessionCfg()
	cfg.ChunkSize = 3
	if _, err := NewSession(e, []byte{1}, cfg); err == nil {
		t.Error("expected error for unsupported chunk size")
	}
}

func TestSessionProgressSinkPanicIgnored(t *testing.T) {
	dev := newSimDevice(0)

	s, err := testSession(t, dev, []byte{1, 2, 3, 4}, func(cfg *SessionCfg) {
		cfg.ProgressCb = func(done, total int, elapsed time.Duration) {
			panic("sink bug")
		}
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s.State() != SESSION_STATE_COMPLETE {
		t.Errorf("state = %s, want complete", s.State())
	}
}

func TestSessionRunTwice(t *testing.T) {
	dev := newSimDevice(0)

	s, err := testSession(t, dev, []byte{1, 2, 3, 4}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if err := s.Run(); !cbxutil.IsAlready(err) {
		t.Errorf("second Run() = %v, want AlreadyError", err)
	}
}
