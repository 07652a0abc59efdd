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
	"strconv"
	"strings"

	"github.com/cbmgr/cbmgr/cbxact/exch"
)

// ParseExchCfg extracts the bus addressing keys shared by every
// connstring: `tx=` (host-to-device ID), `rx=` (device-to-host ID) and
// `ext=` (extended addressing).  IDs accept 0x-prefixed hex.  Keys not
// listed here belong to the transport parsers and are skipped.
func ParseExchCfg(cs string) (exch.ExchCfg, error) {
	ec := exch.NewExchCfg()

	parts := strings.Split(cs, ",")
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 1 {
			continue
		}

		k := kv[0]
		v := kv[1]

		switch k {
		case "tx":
			id, err := strconv.ParseUint(v, 0, 32)
			if err != nil {
				return ec, fmt.Errorf("invalid tx id: %s", v)
			}
			ec.TxID = uint32(id)

		case "rx":
			id, err := strconv.ParseUint(v, 0, 32)
			if err != nil {
				return ec, fmt.Errorf("invalid rx id: %s", v)
			}
			ec.RxID = uint32(id)

		case "ext":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return ec, fmt.Errorf("invalid ext value: %s", v)
			}
			ec.Extended = b
		}
	}

	if ec.TxID == ec.RxID {
		return ec, fmt.Errorf(
			"tx and rx ids must differ; both are 0x%x", ec.TxID)
	}

	return ec, nil
}
