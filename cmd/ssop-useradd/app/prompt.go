package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// maxAttempts bounds how often an invalid answer is asked again.
const maxAttempts = 3

var errInputClosed = errors.New("input closed before all questions were answered")

type prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readSecret reads without echo. It is nil when input is not a terminal,
	// in which case secrets are read as plain lines.
	readSecret func() ([]byte, error)
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.readSecret = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return p
}

func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askUntil returns preset when it is set and valid. Otherwise it prompts
// until validate accepts the answer.
func (p *prompter) askUntil(prompt, preset string, validate func(string) error) (string, error) {
	if preset != "" {
		preset = strings.TrimSpace(preset)
		if err := validate(preset); err != nil {
			return "", err
		}
		return preset, nil
	}

	var lastErr error
	for range maxAttempts {
		answer, err := p.ask(prompt)
		if err != nil {
			return "", err
		}
		if lastErr = validate(answer); lastErr == nil {
			return answer, nil
		}
		fmt.Fprintf(p.out, "  %v\n", lastErr)
	}
	return "", lastErr
}

func (p *prompter) askPassword(prompt string, validate func(string) error) (string, error) {
	var lastErr error
	for range maxAttempts {
		var (
			pw  string
			err error
		)
		if p.readSecret != nil {
			fmt.Fprint(p.out, prompt)
			var raw []byte
			raw, err = p.readSecret()
			fmt.Fprintln(p.out)
			pw = string(raw)
		} else {
			pw, err = p.ask(prompt)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		if lastErr = validate(pw); lastErr == nil {
			return pw, nil
		}
		fmt.Fprintf(p.out, "  %v\n", lastErr)
	}
	return "", lastErr
}
