package cli

import (
	"fmt"
	"io"
	"os"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Printer writes status lines, colored when the output is a terminal.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a printer on w. Color is enabled only when w is the
// process stdout attached to a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: w == io.Writer(os.Stdout) && isTerminal()}
}

// Colorize wraps text in color when coloring is enabled.
func (p *Printer) Colorize(text, color string) string {
	if !p.color {
		return text
	}
	return color + text + ColorReset
}

// Outcome colors an audit outcome: green for success, red otherwise.
func (p *Printer) Outcome(outcome string) string {
	if outcome == "success" {
		return p.Colorize(outcome, ColorGreen)
	}
	return p.Colorize(outcome, ColorRed)
}

// Printf writes a formatted line.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Success prints a success message
func (p *Printer) Success(message string) {
	fmt.Fprintf(p.w, "%s %s\n", p.Colorize("✓", ColorGreen), message)
}

// Warning prints a warning message
func (p *Printer) Warning(message string) {
	fmt.Fprintf(p.w, "%s %s\n", p.Colorize("⚠", ColorYellow), message)
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
