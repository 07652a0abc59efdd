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

// Package flash drives one end-to-end reflash of a device's application
// flash: erase, set address, chunked write, byte-exact read-back verify,
// jump to application.
package flash

import (
	"bytes"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cbmgr/cbmgr/cbxact/blp"
	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
	"github.com/cbmgr/cbmgr/cbxact/chunk"
	"github.com/cbmgr/cbmgr/cbxact/exch"
)

// ProgressFn receives progress after every written or verified chunk.  It
// is fire and forget; a panicking sink cannot abort the session.
type ProgressFn func(bytesDone int, totalBytes int, elapsed time.Duration)

type SessionCfg struct {
	// Base address the image is written to.
	BaseAddr uint32

	// Bytes per WriteChunk frame.  Fixed at 4 by the wire format; kept
	// in the config so the write-unit divisibility contract is checked
	// in one place.
	ChunkSize int

	// The device's physical flash write granularity.  Two consecutive
	// chunks compose exactly one physical write; the device commits a
	// word only once both halves arrive.
	WriteUnit int

	// Issue a GetStatus probe before erasing to confirm the bootloader
	// is listening.
	Probe bool

	// Skip the read-back verification pass.
	NoVerify bool

	EraseTimeout time.Duration
	ChunkTimeout time.Duration
	JumpTimeout  time.Duration

	ProgressCb ProgressFn
}

func NewSessionCfg() SessionCfg {
	return SessionCfg{
		ChunkSize:    blp.BLP_CHUNK_LEN,
		WriteUnit:    2 * blp.BLP_CHUNK_LEN,
		Probe:        true,
		EraseTimeout: 15 * time.Second,
		ChunkTimeout: 1 * time.Second,
		JumpTimeout:  500 * time.Millisecond,
	}
}

// Session is the per-flash-operation state machine.  Construct a fresh one
// for each attempt over an already-started transport; there is no
// resume-from-offset, so a failed session is retried by restarting from
// erase.
type Session struct {
	exch *exch.Exchanger
	cfg  SessionCfg

	// Padded image; loop counts derive from this, not the original.
	img     []byte
	origLen int

	state  State
	offset int
	addr   uint32
	start  time.Time
}

// NewSession validates the configuration and pads the image with 0xFF to a
// chunk boundary.  A chunk size the write unit cannot be composed from is a
// configuration error: the device counts chunks to decide when a physical
// word is complete.
func NewSession(e *exch.Exchanger, img []byte, cfg SessionCfg) (*Session, error) {
	if cfg.ChunkSize <= 0 {
		return nil, cbxutil.FmtXportError("invalid chunk size %d",
			cfg.ChunkSize)
	}
	if cfg.ChunkSize != blp.BLP_CHUNK_LEN {
		return nil, cbxutil.FmtXportError(
			"chunk size %d not supported by the wire format; must be %d",
			cfg.ChunkSize, blp.BLP_CHUNK_LEN)
	}
	if cfg.WriteUnit <= 0 || cfg.WriteUnit%cfg.ChunkSize != 0 {
		return nil, cbxutil.FmtXportError(
			"write unit %d is not a multiple of chunk size %d",
			cfg.WriteUnit, cfg.ChunkSize)
	}

	return &Session{
		exch:    e,
		cfg:     cfg,
		img:     chunk.Pad(img, cfg.ChunkSize),
		origLen: len(img),
		state:   SESSION_STATE_IDLE,
		addr:    cfg.BaseAddr,
	}, nil
}

func (s *Session) State() State {
	return s.state
}

// Offset reports the number of image bytes acknowledged so far in the
// current pass.
func (s *Session) Offset() int {
	return s.offset
}

// Addr mirrors the device's auto-advancing write pointer.  Diagnostic
// only; it is never re-sent mid-write.
func (s *Session) Addr() uint32 {
	return s.addr
}

// TotalLen reports the padded image length, which determines loop counts
// for both write and verify.
func (s *Session) TotalLen() int {
	return len(s.img)
}

// OrigLen reports the pre-padding image length.  Reporting only.
func (s *Session) OrigLen() int {
	return s.origLen
}

// Run executes the whole session.  Any NACK, unrecognized response, or
// timeout is fatal; the caller restarts from erase to retry.  The one
// exception is the final jump, where a silent device has usually already
// booted the application.
func (s *Session) Run() error {
	if s.state != SESSION_STATE_IDLE {
		return cbxutil.NewAlreadyError("session already run")
	}
	s.start = time.Now()

	if s.cfg.Probe {
		if err := s.probe(); err != nil {
			return s.fail(err)
		}
	}
	if err := s.erase(); err != nil {
		return s.fail(err)
	}
	if err := s.setAddress(); err != nil {
		return s.fail(err)
	}
	if err := s.write(); err != nil {
		return s.fail(err)
	}
	if !s.cfg.NoVerify {
		if err := s.verify(); err != nil {
			return s.fail(err)
		}
	}
	s.jump()

	s.state = SESSION_STATE_COMPLETE
	log.Debugf("Flash session complete; %d bytes (%d padded) in %s",
		s.origLen, len(s.img), time.Since(s.start))
	return nil
}

func (s *Session) fail(err error) error {
	log.Debugf("Flash session failed during %s; off=%d addr=0x%08x: %s",
		s.state, s.offset, s.addr, err.Error())
	s.state = SESSION_STATE_FAILED
	return err
}

// expectAck maps the response to the step outcome.  Every non-ACK is a
// hard failure of the current step.
func (s *Session) expectAck(rsp blp.Rsp) error {
	switch r := rsp.(type) {
	case *blp.AckRsp:
		return nil
	case *blp.NackRsp:
		return cbxutil.NewDeviceNackError(s.state.String(), s.addr,
			uint8(r.Err), "device nack during "+s.state.String()+": "+
				r.Err.String())
	default:
		return cbxutil.NewUnexpectedRspError(s.state.String(), rsp.Op())
	}
}

// timeoutAt rewrites an exchange timeout so it carries the step and offset
// at the point of failure.
func (s *Session) timeoutAt(err error) error {
	if !cbxutil.IsRspTimeout(err) {
		return err
	}
	return cbxutil.FmtRspTimeoutError(
		"timeout during %s; off=%d addr=0x%08x", s.state, s.offset, s.addr)
}

func (s *Session) probe() error {
	s.state = SESSION_STATE_PROBING

	rsp, err := s.exch.TxRx(&blp.GetStatusCmd{},
		exch.TxOptions{Timeout: s.cfg.ChunkTimeout})
	if err != nil {
		return s.timeoutAt(err)
	}

	switch r := rsp.(type) {
	case *blp.ReadyRsp:
		return nil
	case *blp.NackRsp:
		return cbxutil.NewDeviceNackError(s.state.String(), s.addr,
			uint8(r.Err), "device nack during probe: "+r.Err.String())
	default:
		return cbxutil.NewUnexpectedRspError(s.state.String(), rsp.Op())
	}
}

func (s *Session) erase() error {
	s.state = SESSION_STATE_ERASING
	log.Debugf("Erasing application flash")

	rsp, err := s.exch.TxRx(&blp.EraseFlashCmd{},
		exch.TxOptions{Timeout: s.cfg.EraseTimeout})
	if err != nil {
		return s.timeoutAt(err)
	}
	return s.expectAck(rsp)
}

// setAddress is issued exactly once; the device's write pointer
// auto-advances for the rest of the session.
func (s *Session) setAddress() error {
	s.state = SESSION_STATE_ADDRESSING
	log.Debugf("Setting base address 0x%08x", s.cfg.BaseAddr)

	rsp, err := s.exch.TxRx(&blp.SetAddressCmd{Addr: s.cfg.BaseAddr},
		exch.TxOptions{Timeout: s.cfg.ChunkTimeout})
	if err != nil {
		return s.timeoutAt(err)
	}
	return s.expectAck(rsp)
}

func (s *Session) write() error {
	s.state = SESSION_STATE_WRITING
	s.offset = 0
	s.addr = s.cfg.BaseAddr

	ch, err := chunk.NewChunker(s.img, s.cfg.ChunkSize)
	if err != nil {
		return err
	}
	log.Debugf("Writing %d chunks of %d bytes", ch.Count(), s.cfg.ChunkSize)

	for {
		data, ok := ch.Next()
		if !ok {
			return nil
		}

		c := &blp.WriteChunkCmd{}
		copy(c.Data[:], data)

		rsp, err := s.exch.TxRx(c,
			exch.TxOptions{Timeout: s.cfg.ChunkTimeout})
		if err != nil {
			return s.timeoutAt(err)
		}
		if err := s.expectAck(rsp); err != nil {
			return err
		}

		s.offset += len(data)
		s.addr += uint32(len(data))
		s.reportProgress(s.offset)
	}
}

// verify re-reads the padded image, including the fill bytes, and fails on
// the first byte that differs from what was written.
func (s *Session) verify() error {
	s.state = SESSION_STATE_VERIFYING
	s.offset = 0
	s.addr = s.cfg.BaseAddr

	for off := 0; off < len(s.img); off += s.cfg.ChunkSize {
		addr := s.cfg.BaseAddr + uint32(off)
		want := s.img[off : off+s.cfg.ChunkSize]

		rsp, err := s.exch.TxRx(
			&blp.ReadFlashCmd{Addr: addr, Len: uint8(s.cfg.ChunkSize)},
			exch.TxOptions{Timeout: s.cfg.ChunkTimeout})
		if err != nil {
			return s.timeoutAt(err)
		}

		switch r := rsp.(type) {
		case *blp.DataRsp:
			if !bytes.Equal(r.Data, want) {
				return cbxutil.NewVerifyMismatchError(addr, want, r.Data)
			}
		case *blp.NackRsp:
			return cbxutil.NewDeviceNackError(s.state.String(), addr,
				uint8(r.Err), "device nack during verify: "+r.Err.String())
		default:
			return cbxutil.NewUnexpectedRspError(s.state.String(), rsp.Op())
		}

		s.offset = off + s.cfg.ChunkSize
		s.addr = addr + uint32(s.cfg.ChunkSize)
		s.reportProgress(s.offset)
	}

	return nil
}

// jump is tolerant: a device that jumped immediately never answers, so a
// missing response here does not fail an otherwise verified flash.
func (s *Session) jump() {
	s.state = SESSION_STATE_JUMPING
	log.Debugf("Jumping to application")

	rsp, err := s.exch.TxRx(&blp.JumpToAppCmd{},
		exch.TxOptions{Timeout: s.cfg.JumpTimeout})
	if err != nil {
		log.Debugf("No response to jump; device likely booted: %s",
			err.Error())
		return
	}
	if err := s.expectAck(rsp); err != nil {
		log.Warnf("Unexpected response to jump; ignoring: %s", err.Error())
	}
}

func (s *Session) reportProgress(bytesDone int) {
	if s.cfg.ProgressCb == nil {
		return
	}

	// The sink must not be able to abort the session.
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("Progress sink panicked; ignoring: %v", r)
		}
	}()

	s.cfg.ProgressCb(bytesDone, len(s.img), time.Since(s.start))
}
