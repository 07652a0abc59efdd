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

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbmgr/cbmgr/cbmgr/cbutil"
	"github.com/cbmgr/cbmgr/cbmgr/config"
	"github.com/cbmgr/cbmgr/cbxact/exch"
	"github.com/cbmgr/cbmgr/cbxact/xport"
)

var globalXport xport.Xport
var globalExch *exch.Exchanger

var onExitCb func()

func CbSetOnExit(cb func()) {
	onExitCb = cb
}

// cbUsage reports a usage-level error and exits.
func cbUsage(cmd *cobra.Command, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	}

	if cmd != nil {
		fmt.Fprintf(os.Stderr, "\n")
		cmd.Help()
	}

	if onExitCb != nil {
		onExitCb()
	}
	os.Exit(1)
}

// cbFatal reports a runtime error and exits.
func cbFatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	if onExitCb != nil {
		onExitCb()
	}
	os.Exit(1)
}

// getConnProfile resolves the profile selected by --conn, overlaid with
// the --conntype / --connstring flags.  Flags alone are enough; a profile
// is not required if both are given.
func getConnProfile() (*config.ConnProfile, error) {
	var cp *config.ConnProfile

	if cbutil.ConnProfile != "" {
		var err error
		cp, err = config.GlobalConnProfileMgr().GetConnProfile(
			cbutil.ConnProfile)
		if err != nil {
			return nil, err
		}
	} else {
		cp = config.NewConnProfile()
	}

	if cbutil.ConnType != "" {
		t, err := config.ConnTypeFromString(cbutil.ConnType)
		if err != nil {
			return nil, err
		}
		cp.Type = t
	}
	if cbutil.ConnString != "" {
		cp.ConnString = cbutil.ConnString
	}

	if cp.Type == config.CONN_TYPE_NONE {
		return nil, fmt.Errorf(
			"no connection configured; use --conn or --conntype/--connstring")
	}

	return cp, nil
}

func GetXport() (xport.Xport, error) {
	if globalXport != nil {
		return globalXport, nil
	}

	cp, err := getConnProfile()
	if err != nil {
		return nil, err
	}

	switch cp.Type {
	case config.CONN_TYPE_SERCAN:
		sc, err := config.ParseSercanConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}

		globalXport, err = config.BuildSercanXport(sc)
		if err != nil {
			return nil, err
		}

	case config.CONN_TYPE_UDPCAN:
		uc, err := config.ParseUdpcanConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}

		globalXport, err = config.BuildUdpcanXport(uc)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown connection type: %s (%d)",
			config.ConnTypeToString(cp.Type), int(cp.Type))
	}

	return globalXport, nil
}

func GetXportIfOpen() (xport.Xport, error) {
	if globalXport == nil {
		return nil, fmt.Errorf("xport not initialized")
	}

	return globalXport, nil
}

func GetExchanger() (*exch.Exchanger, error) {
	if globalExch != nil {
		return globalExch, nil
	}

	cp, err := getConnProfile()
	if err != nil {
		return nil, err
	}

	ec, err := config.ParseExchCfg(cp.ConnString)
	if err != nil {
		return nil, err
	}

	x, err := GetXport()
	if err != nil {
		return nil, err
	}

	globalExch = exch.NewExchanger(x, ec)
	return globalExch, nil
}
