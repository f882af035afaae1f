package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// terminal prints human-friendly command output.
type terminal struct {
	cyan  *color.Color
	green *color.Color
	faint *color.Color
	bold  *color.Color
}

func newTerminal() *terminal {
	return &terminal{
		cyan:  color.New(color.FgCyan, color.Bold),
		green: color.New(color.FgGreen),
		faint: color.New(color.Faint),
		bold:  color.New(color.Bold),
	}
}

func (t *terminal) section(title string) {
	fmt.Println()
	_, _ = t.cyan.Println(strings.ToUpper(title))
}

// label prints a bold label padded to width followed by a value.
func (t *terminal) label(width int, label, value string) {
	padded := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", t.bold.Sprint(padded), value)
}

func (t *terminal) item(text string) {
	fmt.Printf("  %s %s\n", t.faint.Sprint("›"), text)
}

func (t *terminal) success(message string) {
	fmt.Printf("%s %s\n", t.green.Add(color.Bold).Sprint("✓"), t.bold.Sprint(message))
}

// progress returns a bar for total steps written to stderr.
func (t *terminal) progress(total int64, title string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      title + " [",
			BarEnd:        "]",
		}),
	)
}
