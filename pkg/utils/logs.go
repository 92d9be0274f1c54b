// Package utils provides shared types, constants and some 'prettier' console output for the
// CLI. Diagnostics go through logrus; these printers are for what the user asked to see.
package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

var colorGreen = color.New(color.FgGreen).Add(color.Bold).SprintFunc()
var colorRed = color.New(color.FgRed).Add(color.Bold).SprintFunc()
var colorYellow = color.New(color.FgYellow).Add(color.Bold).SprintFunc()
var colorBlue = color.New(color.FgBlue).Add(color.Bold).SprintFunc()
var colorCyan = color.New(color.FgCyan).SprintFunc()
var colorMagenta = color.New(color.FgMagenta).Add(color.Bold).SprintFunc()
var colorFaint = color.New(color.Faint).SprintFunc()

// Output is where the console printers write. Tests swap it for a buffer.
var Output io.Writer = os.Stdout

func stamp() string {
	return time.Now().Format("2006/01/02 15:04:05")
}

// Success prints a success message
func Success(success interface{}) {
	fmt.Fprintf(Output, "%s %s %s\n", stamp(), colorGreen(`[SUCCESS]`), colorCyan(success))
}

// Warning prints a warning message
func Warning(warning interface{}) {
	fmt.Fprintf(Output, "%s %s %s\n", stamp(), colorYellow(`[WARNING]`), colorYellow(warning))
}

// Error prints an error message, dumping every value when several are given
func Error(err ...interface{}) {
	if len(err) == 1 {
		fmt.Fprintf(Output, "%s %s %s\n", stamp(), colorRed(`[ERROR]`), colorRed(err[0]))
		return
	}
	fmt.Fprintf(Output, "%s", colorRed("----------------------------------\n"))
	fmt.Fprintf(Output, "%s %s\n", stamp(), colorRed(`[ERROR]`))
	for _, each := range err {
		spewConfig.Fdump(Output, each)
	}
	fmt.Fprintf(Output, "%s", colorRed("----------------------------------\n"))
}

// Info prints an info message
func Info(info interface{}) {
	fmt.Fprintf(Output, "%s %s %s\n", stamp(), colorBlue(`[INFO]`), colorBlue(info))
}

var spewConfig = spew.ConfigState{Indent: "    ", DisablePointerAddresses: true, SortKeys: true}

// Pretty function disasemble a variable and display it's struct and values
func Pretty(variable ...interface{}) {
	fmt.Fprintf(Output, "%s", colorYellow("----------------------------------\n"))
	for _, each := range variable {
		spewConfig.Fdump(Output, each)
	}
	fmt.Fprintf(Output, "%s", colorYellow("----------------------------------\n"))
}

/**************************************************************************************************
** ConfidenceLabel colours a confidence tier for terminal output: green for high, cyan for
** medium, yellow for low, red for very_low and faint for hints.
**
** @param c - Confidence tier
** @return string - Coloured label
**************************************************************************************************/
func ConfidenceLabel(c TConfidence) string {
	switch c {
	case ConfidenceHigh:
		return colorGreen(string(c))
	case ConfidenceMedium:
		return colorCyan(string(c))
	case ConfidenceLow:
		return colorYellow(string(c))
	case ConfidenceVeryLow:
		return colorRed(string(c))
	default:
		return colorFaint(string(c))
	}
}

/**************************************************************************************************
** SourceLabel colours a date source. File and unknown sources are low confidence and printed in
** warning colours so the user notices them.
**
** @param s - Date source
** @return string - Coloured label
**************************************************************************************************/
func SourceLabel(s TDateSource) string {
	switch s {
	case DateSourceExif:
		return colorGreen(string(s))
	case DateSourceManual:
		return colorMagenta(string(s))
	case DateSourceFile:
		return colorYellow(string(s))
	default:
		return colorRed(string(s))
	}
}
