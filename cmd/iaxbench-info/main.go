// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

// Command iaxbench-info inspects the accelerator host without running
// any measurements: topology summary, device table, readiness
// handshake, build version.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/accelbench/iaxbench/lib/engine/idxd"
	"github.com/accelbench/iaxbench/lib/hwinfo"
	"github.com/accelbench/iaxbench/lib/hwinfo/iax"
	"github.com/accelbench/iaxbench/lib/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if os.Getenv("IAXBENCH_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "sysinfo":
		err = sysinfoCmd(os.Stdout)
	case "devices":
		err = devicesCmd(args, os.Stdout)
	case "selftest":
		err = selftestCmd(args, os.Stdout, logger)
	case "version", "--version":
		fmt.Printf("iaxbench-info %s\n", version.Info())
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`iaxbench-info - inspect the accelerator host without measuring

USAGE
    iaxbench-info <command> [flags]

COMMANDS
    sysinfo    Print the host topology summary
    devices    List analytics accelerator devices and work queues
    selftest   Run the hardware readiness handshake
    version    Show build version

EXAMPLES
    # Confirm the accelerator path works before a measurement run
    iaxbench-info selftest

    # Devices attached to NUMA node 1
    iaxbench-info devices --node=1

    # Exercise one specific work queue
    iaxbench-info selftest --wq=1.0

ENVIRONMENT
    IAXBENCH_DEBUG    Enable debug logging
`)
}

func sysinfoCmd(stdout io.Writer) error {
	probe := hwinfo.NewProbe(iax.NewEnumerator())
	info, err := probe.Info()
	if err != nil {
		return fmt.Errorf("probing host topology: %w", err)
	}
	fmt.Fprint(stdout, info.Summary())
	return nil
}

func devicesCmd(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("devices", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	node := flags.IntP("node", "n", -1, "only devices attached to this NUMA node")
	help := flags.BoolP("help", "h", false, "show usage")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *help {
		fmt.Fprint(stdout, `usage: iaxbench-info devices [flags]

List the analytics device snapshot, one row per work queue.

FLAGS
    --node, -n <n>    Only devices attached to this NUMA node
`)
		return nil
	}
	return writeDeviceTable(stdout, iax.NewEnumerator().Devices(), *node)
}

// writeDeviceTable renders the snapshot, one row per work queue,
// restricted to one node when node is non-negative.
func writeDeviceTable(stdout io.Writer, devices []iax.Device, node int) error {
	tw := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "DEVICE\tNODE\tSTATE\tQUEUE\tMODE\tSIZE\tQUEUE STATE\n")
	matched := 0
	for _, device := range devices {
		if node >= 0 && device.Node != node {
			continue
		}
		matched++
		if len(device.WorkQueues) == 0 {
			fmt.Fprintf(tw, "iax%d\t%s\t%s\t-\t-\t-\t-\n",
				device.ID, nodeLabel(device.Node), device.State)
			continue
		}
		for _, queue := range device.WorkQueues {
			fmt.Fprintf(tw, "iax%d\t%s\t%s\twq%d.%d\t%s\t%d\t%s\n",
				device.ID, nodeLabel(device.Node), device.State,
				queue.DeviceID, queue.Index, queue.Mode, queue.Size, queue.State)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if matched == 0 {
		if node >= 0 {
			fmt.Fprintf(stdout, "no analytics devices on node %d\n", node)
		} else {
			fmt.Fprintln(stdout, "no analytics devices")
		}
	}
	return nil
}

func nodeLabel(node int) string {
	if node == iax.NodeUnknown {
		return "?"
	}
	return strconv.Itoa(node)
}

func selftestCmd(args []string, stdout io.Writer, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("selftest", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	node := flags.IntP("node", "n", -1, "restrict the device search to this NUMA node")
	wq := flags.String("wq", "", "use one specific work queue (device.queue, as in 1.0)")
	help := flags.BoolP("help", "h", false, "show usage")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *help {
		fmt.Fprint(stdout, `usage: iaxbench-info selftest [flags]

Run the readiness handshake: claim a work queue, submit a 4-byte
checksum, wait for completion, release the queue.

FLAGS
    --node, -n <n>    Restrict the device search to this NUMA node
    --wq <d.q>        Use one specific work queue, as in --wq=1.0
`)
		return nil
	}

	logger.Debug("running readiness handshake", "node", *node, "wq", *wq)
	if err := idxd.Selftest(iax.NewEnumerator(), idxd.Options{Node: *node, Queue: *wq}); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "readiness handshake: ok")
	return nil
}
