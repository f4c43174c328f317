// Package cliui renders capture results and history for the terminal.
// Colors respect NO_COLOR and TERM=dumb with graceful fallbacks.
package cliui

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vericap/vericap/capture"
	"github.com/vericap/vericap/database"
	"github.com/vericap/vericap/verify"
)

// C is the global color helper instance
var C = &Colors{}

// Colors provides ANSI color codes with graceful fallbacks
type Colors struct{}

func (c *Colors) Bold(s string) string   { return colorize(s, "\033[1m") }
func (c *Colors) Green(s string) string  { return colorize(s, "\033[32m") }
func (c *Colors) Yellow(s string) string { return colorize(s, "\033[33m") }
func (c *Colors) Red(s string) string    { return colorize(s, "\033[31m") }
func (c *Colors) Dim(s string) string    { return colorize(s, "\033[2m") }

func colorize(s, code string) string {
	if !colorsEnabled() {
		return s
	}
	return code + s + "\033[0m"
}

func colorsEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// PrintResult renders a successful capture with its verification outcomes
func PrintResult(res *capture.CaptureResult) {
	fmt.Printf("%s %s\n", C.Green("✓"), C.Bold(res.Path))
	fmt.Printf("  window: %s (%s), attempt %d\n", res.Target.App, res.Target.Title, res.Attempt)
	if res.RawPath != "" {
		fmt.Printf("  raw intermediate kept: %s\n", res.RawPath)
	}
	if len(res.Results) > 0 {
		fmt.Println(renderResults(res.Results))
	}
}

// renderResults builds the verification table
func renderResults(results []verify.Result) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleColoredBright)
	t.AppendHeader(table.Row{"Check", "Result", "Detail"})

	for _, r := range results {
		status := C.Green("pass")
		if !r.Passed {
			status = C.Red("FAIL")
		}
		t.AppendRow(table.Row{r.Strategy, status, r.Message})
	}
	return t.Render()
}

// PrintHistory renders recent capture runs
func PrintHistory(runs []database.CaptureRun) {
	if len(runs) == 0 {
		fmt.Println(C.Dim("no capture history"))
		return
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleColoredBright)
	t.AppendHeader(table.Row{"When", "Target", "Format", "Status", "Attempts", "Failing Checks", "Output"})

	for _, run := range runs {
		t.AppendRow(table.Row{
			time.Unix(run.CreatedAt, 0).Format("2006-01-02 15:04:05"),
			run.Predicate,
			run.Format,
			statusColor(run.Status),
			run.Attempts,
			run.FailedChecks,
			run.OutputPath,
		})
	}
	fmt.Println(t.Render())
}

func statusColor(status string) string {
	switch status {
	case "verified":
		return C.Green(status)
	case "exhausted", "failed":
		return C.Red(status)
	}
	return status
}
