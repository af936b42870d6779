// Command gfaview is a GPU-backed viewer and analysis tool for genome
// variation graphs with precomputed 2D layouts.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/gfaview/gfaview/layout"
)

// Exit codes. Layout parse failures get their own code so pipeline
// scripts can distinguish bad input data from a broken environment.
const (
	exitOK     = 0
	exitFailed = 1
	exitLayout = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		if isLayoutErr(err) {
			return exitLayout
		}
		return exitFailed
	}
	return exitOK
}

func isLayoutErr(err error) bool {
	for _, sentinel := range []error{
		layout.ErrNoHeader,
		layout.ErrBadRow,
		layout.ErrIndexGap,
		layout.ErrOddEndpoints,
		layout.ErrEmpty,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
