package ui

import (
	"fmt"
	"io"
	"os"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"

	fgGray  = "\033[90m"
	fgGreen = "\033[32m"
	fgBlue  = "\033[34m"
	fgRed   = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
)

var (
	forceColor   bool
	disableColor bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// SetOutput redirects OK/Fail/Panel output; nil restores the defaults.
func SetOutput(out, errOut io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

func isTTY() bool {
	f, isFile := stdout.(*os.File)
	if !isFile {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func C(color, s string) string {
	if disableColor || color == "" {
		return s
	}
	if forceColor || isTTY() {
		return color + s + reset
	}
	return s
}

func OK(msg string)   { fmt.Fprintln(stdout, C(current.Success, symCheck+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, C(current.Error, symCross+" "+msg)) }
