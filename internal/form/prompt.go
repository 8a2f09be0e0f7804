// Package form reads typed field values from a line-oriented input, the
// console's equivalent of a modal form.
package form

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

// ErrEmpty is returned when a required field is left blank.
var ErrEmpty = errors.New("value is required")

// Prompter asks questions on out and reads answers from in. When in is a
// terminal, passwords are read without echo.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
	fd     int
	tty    bool
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{reader: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// Out returns the writer prompts are printed to.
func (p *Prompter) Out() io.Writer { return p.out }

// ReadLine reads one line with surrounding whitespace trimmed. It returns
// io.EOF when input is exhausted.
func (p *Prompter) ReadLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask prints label and returns the answer, which may be empty.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.ReadLine()
}

// Required asks for a non-empty value.
func (p *Prompter) Required(label string) (string, error) {
	v, err := p.Ask(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s: %w", label, ErrEmpty)
	}
	return v, nil
}

// Default asks for a value and returns def when the answer is empty.
func (p *Prompter) Default(label, def string) (string, error) {
	v, err := p.Ask(fmt.Sprintf("%s [%s]", label, def))
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// Int asks for an integer. An empty answer yields def.
func (p *Prompter) Int(label string, def int) (int, error) {
	v, err := p.Default(label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer", label)
	}
	return n, nil
}

// Float asks for a number. An empty answer yields def.
func (p *Prompter) Float(label string, def float64) (float64, error) {
	v, err := p.Default(label, strconv.FormatFloat(def, 'f', -1, 64))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: must be a number", label)
	}
	return n, nil
}

// Choice asks for one of options, matched case-insensitively. An empty
// answer picks the first option.
func (p *Prompter) Choice(label string, options ...string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options")
	}
	v, err := p.Default(fmt.Sprintf("%s (%s)", label, strings.Join(options, "/")), options[0])
	if err != nil {
		return "", err
	}
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%s: choose one of %s", label, strings.Join(options, ", "))
}

// List asks for comma-separated values; blanks are dropped.
func (p *Prompter) List(label string) ([]string, error) {
	v, err := p.Ask(label + " (comma separated)")
	if err != nil {
		return nil, err
	}
	return SplitList(v), nil
}

// SplitList splits s on commas, trimming and dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Password reads a secret. On a terminal the input is not echoed.
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.tty {
		return p.ReadLine()
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out) // Newline after password input
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// YesNo asks until the answer is yes or no.
func (p *Prompter) YesNo(prompt string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s (yes/no): ", prompt)
		line, err := p.ReadLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(p.out, "Please answer yes or no.")
		}
	}
}

// Confirm is YesNo with read errors treated as no.
func (p *Prompter) Confirm(prompt string) bool {
	ok, err := p.YesNo(prompt)
	return err == nil && ok
}
