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

	"github.com/spf13/cast"

	"github.com/cbmgr/cbmgr/cbmgr/cbutil"
	"github.com/cbmgr/cbmgr/cbxact/sercan"
)

func einvalSercanConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return fmt.Errorf("invalid serial connstring; %s", suffix)
}

// ParseSercanConnString extracts the transport half of a serial connstring
// (`dev=/dev/ttyUSB0,baud=115200,...`).  Bus addressing keys are handled
// by ParseExchCfg; unknown keys are rejected here so typos surface.
func ParseSercanConnString(cs string) (*sercan.XportCfg, error) {
	sc := sercan.NewXportCfg()
	sc.ReadTimeout = cbutil.TxOptions().Timeout

	parts := strings.Split(cs, ",")
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		// Handle old-style conn string (single token indicating dev file).
		if len(kv) == 1 {
			kv = []string{"dev", kv[0]}
		}

		k := kv[0]
		v := kv[1]

		switch k {
		case "dev":
			sc.DevPath = v

		case "baud":
			var err error
			sc.Baud, err = cast.ToIntE(v)
			if err != nil {
				return sc, einvalSercanConnString("invalid baud: %s", v)
			}

		case "tx", "rx", "ext":
			// Exchange addressing; see ParseExchCfg.

		default:
			return sc, einvalSercanConnString("unrecognized key: %s", k)
		}
	}

	if sc.DevPath == "" {
		return sc, einvalSercanConnString("missing dev key")
	}

	return sc, nil
}

func BuildSercanXport(sc *sercan.XportCfg) (*sercan.SercanXport, error) {
	sx := sercan.NewSercanXport(sc)
	if err := sx.Start(); err != nil {
		return nil, err
	}

	return sx, nil
}
