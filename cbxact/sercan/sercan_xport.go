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

// Package sercan drives a serial-attached bus adapter that bridges 8-byte
// bus frames onto a CRC-protected ASCII line protocol.
package sercan

import (
	"bufio"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
	"github.com/cbmgr/cbmgr/cbxact/xport"
)

type XportCfg struct {
	DevPath     string
	Baud        int
	ReadTimeout time.Duration
}

func NewXportCfg() *XportCfg {
	return &XportCfg{
		Baud:        115200,
		ReadTimeout: 10 * time.Second,
	}
}

type SercanXport struct {
	cfg  *XportCfg
	port *serial.Port
	rxCb xport.RxFn

	wg sync.WaitGroup
	sync.Mutex
	closing bool
	started bool
}

func NewSercanXport(cfg *XportCfg) *SercanXport {
	return &SercanXport{
		cfg: cfg,
	}
}

func (sx *SercanXport) SetRxCb(cb xport.RxFn) {
	sx.Lock()
	defer sx.Unlock()

	sx.rxCb = cb
}

func (sx *SercanXport) Start() error {
	sx.Lock()
	defer sx.Unlock()

	if sx.started {
		return cbxutil.NewAlreadyError("serial xport already started")
	}

	c := &serial.Config{
		Name:        sx.cfg.DevPath,
		Baud:        sx.cfg.Baud,
		ReadTimeout: sx.cfg.ReadTimeout,
	}

	// Mark started only once the port is actually open; a failed open
	// must leave the xport stopped so Start can be retried.
	port, err := serial.OpenPort(c)
	if err != nil {
		return err
	}

	if err := port.Flush(); err != nil {
		port.Close()
		return err
	}

	sx.port = port
	sx.started = true

	sx.wg.Add(1)
	go func() {
		defer sx.wg.Done()

		// The adapter speaks one frame per line; read with a scanner.
		scanner := bufio.NewScanner(port)

		for scanner.Scan() {
			line := scanner.Bytes()

			sx.Lock()
			if sx.closing {
				sx.Unlock()
				return
			}
			cb := sx.rxCb
			sx.Unlock()

			f, err := DecodeLine(line)
			if err != nil {
				log.Debugf("Skipping malformed adapter line %q: %s",
					line, err.Error())
				continue
			}

			log.Debugf("Rx serial; %s", f.String())
			if cb != nil {
				cb(f)
			}
		}
	}()

	return nil
}

func (sx *SercanXport) Stop() error {
	sx.Lock()
	if !sx.started || sx.closing {
		sx.Unlock()
		return cbxutil.NewAlreadyError("serial xport already stopped")
	}
	sx.closing = true
	sx.Unlock()

	err := sx.port.Close()
	sx.wg.Wait()
	return err
}

func (sx *SercanXport) Tx(f xport.Frame) error {
	sx.Lock()
	defer sx.Unlock()

	if sx.closing || !sx.started {
		return fmt.Errorf("attempt to transmit over closed serial port")
	}

	line := append(EncodeLine(f), '\n')
	log.Debugf("Tx serial; %s", f.String())

	if _, err := sx.port.Write(line); err != nil {
		return err
	}
	return nil
}
