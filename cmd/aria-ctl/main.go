// aria-ctl sends one control command to a running daemon over its
// unix socket and prints the reply.
//
//	aria-ctl inject "what time is it"
//	aria-ctl transcribe /tmp/question.wav
//	aria-ctl shutdown
package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"aria/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Daemon control socket path")
	cli.Parse()

	args := cli.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: aria-ctl [--socket path] <inject|transcribe|shutdown> [arg]")
		os.Exit(2)
	}

	cmd := args[0]
	arg := strings.Join(args[1:], " ")

	reply, err := ipc.SendCommand(*socket, cmd, arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aria-ctl: %v\n", err)
		os.Exit(1)
	}
	if reply != "" {
		fmt.Print(reply)
	}
}
