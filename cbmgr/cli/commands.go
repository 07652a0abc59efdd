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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cbmgr/cbmgr/cbmgr/cbutil"
	"github.com/cbmgr/cbmgr/cbxact/cbxutil"
)

var CbmgrLogLevel log.Level

func Commands() *cobra.Command {
	logLevelStr := ""
	cbCmd := &cobra.Command{
		Use:   cbutil.ToolInfo.ExeName,
		Short: cbutil.ToolInfo.ShortName + " reflashes devices over the bus",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			CbmgrLogLevel, err = log.ParseLevel(logLevelStr)
			if err != nil {
				cbUsage(nil, err)
			}

			cbxutil.SetLogLevel(CbmgrLogLevel)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	cbCmd.PersistentFlags().StringVarP(&cbutil.ConnProfile, "conn", "c", "",
		"connection profile to use")

	cbCmd.PersistentFlags().Float64VarP(&cbutil.Timeout, "timeout", "t", 1.0,
		"per-exchange timeout in seconds (partial seconds allowed)")

	cbCmd.PersistentFlags().StringVarP(&logLevelStr, "loglevel", "l", "info",
		"log level to use")

	cbCmd.PersistentFlags().StringVar(&cbutil.ConnType, "conntype", "",
		"Connection type to use instead of using the profile's type")

	cbCmd.PersistentFlags().StringVar(&cbutil.ConnString, "connstring", "",
		"Connection key-value pairs to use instead of using the profile's "+
			"connstring")

	versCmd := &cobra.Command{
		Use:     "version",
		Short:   "Display the " + cbutil.ToolInfo.ShortName + " version number",
		Example: "  " + cbutil.ToolInfo.ExeName + " version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n",
				cbutil.ToolInfo.LongName,
				cbutil.ToolInfo.VersionString)
		},
	}
	cbCmd.AddCommand(versCmd)

	cbCmd.AddCommand(flashCmd())
	cbCmd.AddCommand(eraseCmd())
	cbCmd.AddCommand(readCmd())
	cbCmd.AddCommand(statusCmd())
	cbCmd.AddCommand(jumpCmd())
	cbCmd.AddCommand(connProfileCmd())

	return cbCmd
}
