package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user one question and returns the answer line with
// its trailing newline removed. It returns io.EOF when input is exhausted.
type Prompter interface {
	Prompt(question string) (string, error)
}

// LinePrompter reads answers line by line from an input stream.
type LinePrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewLinePrompter returns a prompter that writes questions to out and
// reads answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{scanner: bufio.NewScanner(in), out: out}
}

// Prompt writes question without a newline and reads one line.
func (p *LinePrompter) Prompt(question string) (string, error) {
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	// bufio.Scanner handles both LF and CRLF line endings.
	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	// Keep the terminal tidy when input ends mid-prompt.
	_, _ = fmt.Fprintln(p.out)
	return "", io.EOF
}

// ScriptedPrompter answers from a fixed list. It records every question it
// was asked. Once the answers run out it returns io.EOF.
type ScriptedPrompter struct {
	answers   []string
	Questions []string
}

// NewScriptedPrompter returns a prompter that replays answers in order.
func NewScriptedPrompter(answers ...string) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// Prompt returns the next scripted answer.
func (p *ScriptedPrompter) Prompt(question string) (string, error) {
	p.Questions = append(p.Questions, strings.TrimSpace(question))
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}
