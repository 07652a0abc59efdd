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
	"github.com/cbmgr/cbmgr/cbxact/blp"
	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
	"github.com/cbmgr/cbmgr/cbxact/exch"
)

// One-shot operations used by the CLI outside of a full session.

func expectAckTo(step string, rsp blp.Rsp) error {
	switch r := rsp.(type) {
	case *blp.AckRsp:
		return nil
	case *blp.NackRsp:
		return cbxutil.NewDeviceNackError(step, 0, uint8(r.Err),
			"device nack during "+step+": "+r.Err.String())
	default:
		return cbxutil.NewUnexpectedRspError(step, rsp.Op())
	}
}

// Erase wipes the application flash without writing anything.
func Erase(e *exch.Exchanger, opt exch.TxOptions) error {
	rsp, err := e.TxRx(&blp.EraseFlashCmd{}, opt)
	if err != nil {
		return err
	}
	return expectAckTo("erase", rsp)
}

// Status asks whether the bootloader is listening.  Returns nil when the
// device reports READY.
func Status(e *exch.Exchanger, opt exch.TxOptions) error {
	rsp, err := e.TxRx(&blp.GetStatusCmd{}, opt)
	if err != nil {
		return err
	}

	switch r := rsp.(type) {
	case *blp.ReadyRsp:
		return nil
	case *blp.NackRsp:
		return cbxutil.NewDeviceNackError("status", 0, uint8(r.Err),
			"device nack during status: "+r.Err.String())
	default:
		return cbxutil.NewUnexpectedRspError("status", rsp.Op())
	}
}

// Read fetches n bytes of flash starting at addr, in frames of at most
// BLP_READ_MAX_LEN bytes.
func Read(e *exch.Exchanger, addr uint32, n int,
	opt exch.TxOptions) ([]byte, error) {

	out := make([]byte, 0, n)

	for len(out) < n {
		step := n - len(out)
		if step > blp.BLP_READ_MAX_LEN {
			step = blp.BLP_READ_MAX_LEN
		}

		rsp, err := e.TxRx(&blp.ReadFlashCmd{
			Addr: addr + uint32(len(out)),
			Len:  uint8(step),
		}, opt)
		if err != nil {
			return nil, err
		}

		switch r := rsp.(type) {
		case *blp.DataRsp:
			out = append(out, r.Data...)
		case *blp.NackRsp:
			return nil, cbxutil.NewDeviceNackError("read",
				addr+uint32(len(out)), uint8(r.Err),
				"device nack during read: "+r.Err.String())
		default:
			return nil, cbxutil.NewUnexpectedRspError("read", rsp.Op())
		}
	}

	return out, nil
}

// Jump starts the application.  Tolerant of a missing response; the device
// usually stops responding the moment it boots.
func Jump(e *exch.Exchanger, opt exch.TxOptions) error {
	rsp, err := e.TxRx(&blp.JumpToAppCmd{}, opt)
	if err != nil {
		if cbxutil.IsRspTimeout(err) {
			return nil
		}
		return err
	}
	return expectAckTo("jump", rsp)
}
