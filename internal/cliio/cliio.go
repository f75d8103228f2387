package cliio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/branchkeeper/internal/tableutil"
)

// ErrConfirmationRequired is returned when a destructive action needs a
// confirmation that cannot be asked for.
var ErrConfirmationRequired = errors.New("confirmation required: rerun with --yes")

// PromptYesNo writes prompt and reads a yes/no response from input.
func PromptYesNo(out io.Writer, in io.Reader, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	return choice == "y" || choice == "yes", nil
}

// Confirm asks before an irreversible action. assumeYes skips the prompt;
// without a terminal the action is refused.
func Confirm(out io.Writer, in io.Reader, interactive, assumeYes bool, prompt string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !interactive {
		return false, ErrConfirmationRequired
	}
	return PromptYesNo(out, in, prompt)
}

// WriteTable renders a simple tab-separated table with optional headers.
func WriteTable(out io.Writer, stripEscape bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, stripEscape)
	if err := tableutil.PrintHeaders(w, noHeaders, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}
