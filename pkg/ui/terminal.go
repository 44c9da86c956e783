package ui

import (
	"fmt"
	"io"
	"os"
)

// Output is where the Print helpers write
var Output io.Writer = os.Stdout

var quiet bool

// SetQuietMode suppresses everything but errors
func SetQuietMode(q bool) {
	quiet = q
}

// PrintError prints an error message, with an optional detail
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 && fmt.Sprint(args[0]) != "" {
		msg = msg + ": " + fmt.Sprint(args[0])
	}
	fmt.Fprintln(Output, errorStyle.Render(msg))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Output, successStyle.Render(msg))
}

// PrintInfo prints a label and its value
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(Output, "%s: %s\n", labelStyle.Render(label), valueStyle.Render(value))
}

// PrintWarning prints a warning message, with an optional detail
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 && fmt.Sprint(args[0]) != "" {
		msg = msg + ": " + fmt.Sprint(args[0])
	}
	fmt.Fprintln(Output, warningStyle.Render(msg))
}

// PrintHighlight prints a highlighted message
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Output, highlightStyle.Render(msg))
}

// PrintBlock prints pre-rendered text as is
func PrintBlock(text string) {
	fmt.Fprintln(Output, text)
}
