package cliio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/stackkeeper/internal/tableutil"
)

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

// ConfirmForced asks the operator to confirm a forced operation after a
// gate downgrade. Non-interactive callers pass force through without
// prompting.
func ConfirmForced(out io.Writer, in io.Reader, operation, reason string) (bool, error) {
	prompt := fmt.Sprintf("%s is normally blocked here (%s). Continue anyway? [y/N] ", operation, reason)
	return PromptYesNo(out, in, prompt)
}

// WriteKeyValues renders a two-column key/value listing, as used by the
// debug-info report.
func WriteKeyValues(out io.Writer, pairs [][2]string) error {
	w := tableutil.New(out, false)
	for _, pair := range pairs {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", pair[0], pair[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteTable renders a simple tab-separated table with optional headers.
func WriteTable(out io.Writer, stripEscape bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, stripEscape)
	if !noHeaders {
		if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}
