package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// UI writes human-readable or JSON command output.
type UI struct {
	out      io.Writer
	noColor  bool
	jsonMode bool
}

// NewUI creates a UI writing to out.
func NewUI(out io.Writer, jsonMode, noColor bool) *UI {
	return &UI{out: out, noColor: noColor, jsonMode: jsonMode}
}

func (ui *UI) print(attr color.Attribute, symbol, format string, args ...any) {
	if ui.jsonMode {
		return
	}
	msg := symbol + " " + fmt.Sprintf(format, args...) + "\n"
	if ui.noColor {
		fmt.Fprint(ui.out, msg)
		return
	}
	c := color.New(attr)
	c.EnableColor()
	_, _ = c.Fprint(ui.out, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...any) { ui.print(color.FgGreen, "✓", format, args...) }

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...any) { ui.print(color.FgYellow, "⚠", format, args...) }

// Info prints an info message.
func (ui *UI) Info(format string, args ...any) { ui.print(color.FgCyan, "ℹ", format, args...) }

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out)
	line := fmt.Sprintf("━━━ %s ━━━", strings.ToUpper(title))
	if ui.noColor {
		fmt.Fprintln(ui.out, line)
	} else {
		c := color.New(color.FgMagenta, color.Bold)
		c.EnableColor()
		_, _ = c.Fprintln(ui.out, line)
	}
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value any) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Fprintf(ui.out, "  %s: %v\n", key, value)
		return
	}
	c := color.New(color.FgYellow)
	c.EnableColor()
	_, _ = c.Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

// Text prints plain text.
func (ui *UI) Text(s string) {
	if !ui.jsonMode {
		fmt.Fprintln(ui.out, s)
	}
}

// Table prints aligned columns under a bold header.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}
	tw := tabwriter.NewWriter(ui.out, 0, 0, 2, ' ', 0)
	header := strings.Join(headers, "\t")
	if !ui.noColor {
		c := color.New(color.FgCyan, color.Bold)
		c.EnableColor()
		header = c.Sprint(header)
	}
	fmt.Fprintln(tw, header)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// JSON writes v as indented JSON. It is a no-op outside JSON mode.
func (ui *UI) JSON(v any) error {
	if !ui.jsonMode {
		return nil
	}
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Spinner shows indeterminate progress on stderr while a model call runs.
type Spinner struct {
	s *spinner.Spinner
}

// Spinner starts a spinner unless output is JSON or stderr is not a terminal.
// The returned Spinner is safe to Stop when nil.
func (ui *UI) Spinner(message string) *Spinner {
	if ui.jsonMode || !isTerminal(os.Stderr) {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	return &Spinner{s: s}
}

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() {
	if s != nil {
		s.s.Stop()
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
