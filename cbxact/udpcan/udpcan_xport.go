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
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
	"github.com/cbmgr/cbmgr/cbxact/xport"
)

type XportCfg struct {
	// host:port of the bridge.
	Peer string
}

func NewXportCfg() *XportCfg {
	return &XportCfg{}
}

type UdpcanXport struct {
	cfg *XportCfg

	conn *net.UDPConn
	addr *net.UDPAddr

	// Guards rxCb and started; the rx goroutine reads rxCb concurrently
	// with SetRxCb, which the exchanger installs after Start.
	sync.Mutex
	rxCb    xport.RxFn
	started bool
}

func NewUdpcanXport(cfg *XportCfg) *UdpcanXport {
	return &UdpcanXport{
		cfg: cfg,
	}
}

func (ux *UdpcanXport) SetRxCb(cb xport.RxFn) {
	ux.Lock()
	defer ux.Unlock()

	ux.rxCb = cb
}

func (ux *UdpcanXport) Start() error {
	ux.Lock()
	defer ux.Unlock()

	if ux.started {
		return cbxutil.NewAlreadyError("udp xport already started")
	}

	addr, err := net.ResolveUDPAddr("udp", ux.cfg.Peer)
	if err != nil {
		return fmt.Errorf("failure resolving bridge address: %s",
			err.Error())
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return fmt.Errorf("failed to listen for UDP responses: %s",
			err.Error())
	}

	ux.conn = conn
	ux.addr = addr
	ux.started = true

	go func() {
		data := make([]byte, DATAGRAM_LEN+1)

		for {
			nr, srcAddr, err := conn.ReadFromUDP(data)
			if err != nil {
				// Connection closed or read error.
				return
			}

			f, err := DecodeDatagram(data[0:nr])
			if err != nil {
				log.Debugf("Skipping bad datagram from %v: %s",
					srcAddr, err.Error())
				continue
			}

			log.Debugf("Rx udp from %v; %s", srcAddr, f.String())
			ux.Lock()
			cb := ux.rxCb
			ux.Unlock()
			if cb != nil {
				cb(f)
			}
		}
	}()

	return nil
}

// LocalAddr reports the socket address the bridge's responses arrive on.
// Nil before a successful Start.
func (ux *UdpcanXport) LocalAddr() net.Addr {
	ux.Lock()
	defer ux.Unlock()

	if ux.conn == nil {
		return nil
	}
	return ux.conn.LocalAddr()
}

func (ux *UdpcanXport) Stop() error {
	ux.Lock()
	defer ux.Unlock()

	if !ux.started {
		return cbxutil.NewAlreadyError("udp xport already stopped")
	}
	ux.started = false
	return ux.conn.Close()
}

func (ux *UdpcanXport) Tx(f xport.Frame) error {
	ux.Lock()
	defer ux.Unlock()

	if !ux.started {
		return fmt.Errorf("attempt to transmit over closed UDP socket")
	}

	log.Debugf("Tx udp to %v; %s", ux.addr, f.String())
	if _, err := ux.conn.WriteToUDP(EncodeDatagram(f), ux.addr); err != nil {
		return err
	}
	return nil
}
