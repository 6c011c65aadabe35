package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// errNoInput is returned when stdin is closed before an answer arrives.
var errNoInput = errors.New("no input")

// prompter reads answers line by line. Every question fails with errNoInput
// on EOF so piped input cannot loop forever.
type prompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, scanner: bufio.NewScanner(in)}
}

func (p *prompter) line() (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func (p *prompter) ask(question string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", question)
	return p.line()
}

// secret reads without echo on a terminal and falls back to a plain line.
func (p *prompter) secret(question string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", question)
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return p.line()
}

// choose prints numbered options and accepts either a number or an option key.
func (p *prompter) choose(question string, keys, labels []string) (string, error) {
	_, _ = fmt.Fprintln(p.out, question)
	for i, l := range labels {
		_, _ = fmt.Fprintf(p.out, "  %d) %s\n", i+1, l)
	}
	for {
		ans, err := p.ask("Choice")
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(ans); err == nil && n >= 1 && n <= len(keys) {
			return keys[n-1], nil
		}
		for _, k := range keys {
			if strings.EqualFold(k, ans) {
				return k, nil
			}
		}
		_, _ = fmt.Fprintf(p.out, "  Please enter a number between 1 and %d.\n", len(keys))
	}
}

func (p *prompter) confirm(question string) bool {
	ans, err := p.ask(question + " [y/N]")
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(ans), "y")
}
