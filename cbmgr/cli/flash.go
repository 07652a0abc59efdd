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
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/cbmgr/cbmgr/cbmgr/cbutil"
	"github.com/cbmgr/cbmgr/cbxact/flash"
)

// Default application base for STM32-style parts; override with --base.
const dfltBaseAddr = 0x08008000

var flashBaseAddr string
var flashNoVerify bool
var flashEraseTimeout float64

func parseAddr(s string) (uint32, error) {
	addr, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", s)
	}
	return uint32(addr), nil
}

func flashRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		cbUsage(cmd, fmt.Errorf("need to specify image file to flash"))
	}

	img, err := ioutil.ReadFile(args[0])
	if err != nil {
		cbUsage(cmd, err)
	}
	if len(img) == 0 {
		cbUsage(cmd, fmt.Errorf("image file %s is empty", args[0]))
	}

	base, err := parseAddr(flashBaseAddr)
	if err != nil {
		cbUsage(cmd, err)
	}

	e, err := GetExchanger()
	if err != nil {
		cbFatal(err)
	}

	cfg := flash.NewSessionCfg()
	cfg.BaseAddr = base
	cfg.NoVerify = flashNoVerify
	cfg.ChunkTimeout = cbutil.TxOptions().Timeout
	cfg.EraseTimeout = time.Duration(
		flashEraseTimeout * float64(time.Second))

	bar := pb.New(0).SetUnits(pb.U_BYTES)
	lastState := flash.SESSION_STATE_IDLE

	var sess *flash.Session
	cfg.ProgressCb = func(done int, total int, elapsed time.Duration) {
		// Restart the bar when the session moves from writing to
		// verifying.
		if sess.State() != lastState {
			bar.Finish()
			bar = pb.New(total).SetUnits(pb.U_BYTES)
			bar.Prefix(sess.State().String())
			bar.Start()
			lastState = sess.State()
		}
		bar.Set(done)
	}

	sess, err = flash.NewSession(e, img, cfg)
	if err != nil {
		cbFatal(err)
	}

	fmt.Printf("Flashing %s: %d bytes (%d padded) at 0x%08x\n",
		args[0], sess.OrigLen(), sess.TotalLen(), base)

	err = sess.Run()
	bar.Finish()
	if err != nil {
		cbFatal(fmt.Errorf("flash failed at offset %d (0x%08x): %s",
			sess.Offset(), sess.Addr(), err.Error()))
	}

	fmt.Printf("Done\n")
}

func eraseRunCmd(cmd *cobra.Command, args []string) {
	e, err := GetExchanger()
	if err != nil {
		cbFatal(err)
	}

	opt := cbutil.TxOptions()
	opt.Timeout = time.Duration(flashEraseTimeout * float64(time.Second))

	if err := flash.Erase(e, opt); err != nil {
		cbFatal(err)
	}

	fmt.Printf("Done\n")
}

func readRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 2 {
		cbUsage(cmd, fmt.Errorf("need address and byte count"))
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		cbUsage(cmd, err)
	}

	count, err := strconv.Atoi(args[1])
	if err != nil || count <= 0 {
		cbUsage(cmd, fmt.Errorf("invalid byte count: %s", args[1]))
	}

	e, err := GetExchanger()
	if err != nil {
		cbFatal(err)
	}

	data, err := flash.Read(e, addr, count, cbutil.TxOptions())
	if err != nil {
		cbFatal(err)
	}

	fmt.Printf("%s", hex.Dump(data))
}

func statusRunCmd(cmd *cobra.Command, args []string) {
	e, err := GetExchanger()
	if err != nil {
		cbFatal(err)
	}

	if err := flash.Status(e, cbutil.TxOptions()); err != nil {
		cbFatal(err)
	}

	fmt.Printf("Bootloader ready\n")
}

func jumpRunCmd(cmd *cobra.Command, args []string) {
	e, err := GetExchanger()
	if err != nil {
		cbFatal(err)
	}

	if err := flash.Jump(e, cbutil.TxOptions()); err != nil {
		cbFatal(err)
	}

	fmt.Printf("Done\n")
}

func flashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flash <image-file>",
		Short: "Erase, write, verify and start an application image",
		Example: "  " + cbutil.ToolInfo.ExeName +
			" -c myconn flash app.bin --base 0x08008000",
		Run: flashRunCmd,
	}

	cmd.PersistentFlags().StringVar(&flashBaseAddr, "base",
		fmt.Sprintf("0x%08x", dfltBaseAddr),
		"flash base address to write the image to")

	cmd.PersistentFlags().BoolVar(&flashNoVerify, "no-verify", false,
		"skip the read-back verification pass")

	cmd.PersistentFlags().Float64Var(&flashEraseTimeout, "erase-timeout",
		15.0, "erase timeout in seconds")

	return cmd
}

func eraseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase the application flash without writing",
		Run:   eraseRunCmd,
	}

	cmd.PersistentFlags().Float64Var(&flashEraseTimeout, "erase-timeout",
		15.0, "erase timeout in seconds")

	return cmd
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <address> <count>",
		Short: "Read back a region of flash",
		Example: "  " + cbutil.ToolInfo.ExeName +
			" -c myconn read 0x08008000 64",
		Run: readRunCmd,
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the bootloader is listening",
		Run:   statusRunCmd,
	}
}

func jumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jump",
		Short: "Start the application without reflashing",
		Run:   jumpRunCmd,
	}
}
