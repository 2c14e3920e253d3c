// Command devinfo shows device information for the local host, an
// Android device or a remote host reached over SSH.
//
// Usage:
//
//	devinfo [flags]                 tabbed terminal UI
//	devinfo info system             one tab as plain text
//	devinfo dashboard --count 1     dashboard snapshots
//	devinfo sensors --watch         throttled sensor updates
//	devinfo apps --filter user      installed packages
//	devinfo monitor                 battery alerts
//	devinfo benchmark cpu           micro-benchmarks
//	devinfo overlay                 floating stats window
//	devinfo prefs set theme dark    preferences
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time via ldflags:
//
//	go build -ldflags "-X main.Version=1.0.0" ./cmd/devinfo
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
