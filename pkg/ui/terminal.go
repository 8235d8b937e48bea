package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner is the loading indicator shown while a request is in flight.
type Spinner struct {
	s *spinner.Spinner
}

func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{s: spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))}
}

func (s *Spinner) Start(label string) {
	s.s.Suffix = " " + label
	s.s.Start()
}

func (s *Spinner) Stop() {
	s.s.Stop()
}

// Notifier prints status lines.
type Notifier struct {
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Error(msg string) {
	color.New(color.FgRed).Fprintf(n.out, "✗ %s\n", msg)
}

func (n *Notifier) Success(msg string) {
	color.New(color.FgGreen).Fprintf(n.out, "✓ %s\n", msg)
}

// Prompter reads answers line by line.
type Prompter struct {
	scanner   *bufio.Scanner
	out       io.Writer
	assumeYes bool
}

func NewPrompter(in io.Reader, out io.Writer, assumeYes bool) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out, assumeYes: assumeYes}
}

// Line prints label and reads one trimmed line. ok is false at end of input.
func (p *Prompter) Line(label string) (string, bool) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// Confirm asks a y/N question. End of input counts as no.
func (p *Prompter) Confirm(prompt string) bool {
	if p.assumeYes {
		fmt.Fprintf(p.out, "%s %s\n", color.YellowString(prompt), color.HiBlackString("(yes)"))
		return true
	}
	return p.Ask(prompt)
}

// Ask is Confirm without the assume-yes shortcut: it always reads an answer.
func (p *Prompter) Ask(prompt string) bool {
	answer, ok := p.Line(color.YellowString(prompt) + " [y/N]")
	if !ok {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
