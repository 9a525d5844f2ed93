// File: internal/ui/prompt/prompt.go
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Defines the interface for prompting the user for input
type Prompter interface {
	// Asks the user for confirmation by requiring them to type a specific expected value
	Confirm(message string, expectedValue string) (bool, error)
}

// NewPrompter returns an interactive prompter when in and out are both
// terminals, and a line-based prompter otherwise (pipes, CI).
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK && isatty.IsTerminal(inFile.Fd()) && isatty.IsTerminal(outFile.Fd()) {
		return NewTerminalPrompter(in, out)
	}
	return NewStandardPrompter(in, out)
}

var errEmptyExpected = errors.New("expected confirmation value cannot be empty")

// Provides a standard implementation of the Prompter interface using specified input/output streams
type StandardPrompter struct {
	reader io.Reader
	writer io.Writer
}

// Creates a new StandardPrompter with the given input and output streams
func NewStandardPrompter(in io.Reader, out io.Writer) *StandardPrompter {
	return &StandardPrompter{
		reader: in,
		writer: out,
	}
}

// Asks the user for confirmation by requiring them to type a specific expected value
func (p *StandardPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, errEmptyExpected
	}

	fmt.Fprintln(p.writer, message)
	fmt.Fprintf(p.writer, "To confirm, please type the name '%s': ", expectedValue)

	reader := bufio.NewReader(p.reader)
	input, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return strings.TrimSpace(input) == expectedValue, nil
		}
		return false, fmt.Errorf("error reading user input: %w", err)
	}

	return strings.TrimSpace(input) == expectedValue, nil
}
