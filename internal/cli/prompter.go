package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

// linePrompter reads answers line by line. It also serves as the
// telegram.Prompter for login codes.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

// stdinPrompter is shared so that menus and login codes read through one
// buffer.
var stdinPrompter = sync.OnceValue(func() *linePrompter {
	return newLinePrompter(os.Stdin, os.Stdout)
})

// promptFor returns the prompter for cmd's input.
func promptFor(cmd *cobra.Command) *linePrompter {
	if in := cmd.InOrStdin(); in != io.Reader(os.Stdin) {
		return newLinePrompter(in, cmd.OutOrStdout())
	}
	return stdinPrompter()
}

// Prompt prints label and returns the trimmed answer. io.EOF is returned
// only when the input ended without an answer.
func (p *linePrompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask returns def for an empty answer or a closed input.
func (p *linePrompter) Ask(label, def string) (string, error) {
	if def != "" {
		label = fmt.Sprintf("%s [%s]", label, def)
	}
	answer, err := p.Prompt(label + ": ")
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(p.out)
		return def, nil
	}
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskInt falls back to def when the answer is empty or not a number.
func (p *linePrompter) AskInt(label string, def int) (int, error) {
	answer, err := p.Ask(label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		fmt.Fprintf(p.out, "not a number, using %d\n", def)
		return def, nil
	}
	return n, nil
}

// Confirm asks a yes/no question, defaulting to no.
func (p *linePrompter) Confirm(label string) (bool, error) {
	answer, err := p.Ask(label+" (y/N)", "")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
