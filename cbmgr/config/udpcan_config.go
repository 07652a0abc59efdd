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

package config

import (
	"fmt"
	"strings"

	"github.com/cbmgr/cbmgr/cbxact/udpcan"
)

func einvalUdpcanConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return fmt.Errorf("invalid udp connstring; %s", suffix)
}

// ParseUdpcanConnString extracts the transport half of a UDP connstring
// (`peer=192.0.2.1:15731,...`).
func ParseUdpcanConnString(cs string) (*udpcan.XportCfg, error) {
	uc := udpcan.NewXportCfg()

	parts := strings.Split(cs, ",")
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		// Handle old-style conn string (single token indicating peer).
		if len(kv) == 1 {
			kv = []string{"peer", kv[0]}
		}

		k := kv[0]
		v := kv[1]

		switch k {
		case "peer":
			uc.Peer = v

		case "tx", "rx", "ext":
			// Exchange addressing; see ParseExchCfg.

		default:
			return uc, einvalUdpcanConnString("unrecognized key: %s", k)
		}
	}

	if uc.Peer == "" {
		return uc, einvalUdpcanConnString("missing peer key")
	}

	return uc, nil
}

func BuildUdpcanXport(uc *udpcan.XportCfg) (*udpcan.UdpcanXport, error) {
	ux := udpcan.NewUdpcanXport(uc)
	if err := ux.Start(); err != nil {
		return nil, err
	}

	return ux, nil
}
