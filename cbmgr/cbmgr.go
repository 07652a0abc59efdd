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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbmgr/cbmgr/cbmgr/cbutil"
	"github.com/cbmgr/cbmgr/cbmgr/cli"
	"github.com/cbmgr/cbmgr/cbmgr/config"
	"github.com/cbmgr/cbmgr/cbxact/sercan"
)

func main() {
	cbutil.ToolInfo = cbutil.ToolInfoType{
		ExeName:       "cbmgr",
		ShortName:     "cbmgr",
		LongName:      "cbmgr - bus bootloader flash manager",
		VersionString: "0.2.0",
		CfgFilename:   ".cbmgr.cp.json",
	}

	if err := config.InitGlobalConnProfileMgr(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	onExit := func() {
		x, err := cli.GetXportIfOpen()
		if err == nil {
			// Don't attempt to close a serial transport.  Attempting to close
			// the serial port while a read is in progress (in MacOS) just
			// blocks until the read completes.  Instead, let the OS close the
			// port on termination.
			if _, ok := x.(*sercan.SercanXport); !ok {
				x.Stop()
			}
		}
	}
	defer onExit()
	cli.CbSetOnExit(onExit)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			<-sigChan
			onExit()
			os.Exit(0)
		}
	}()

	cli.Commands().Execute()
}
