package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// ErrReported marks a failure the notifier has already shown.
var ErrReported = errors.New("reported")

type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() []error { return []error{e.err, ErrReported} }

// reported wraps a mutation error so main does not print it twice.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// readPassword takes the flag value, then the env var, then one line of stdin.
func readPassword(cmd *cobra.Command, flagValue, envKey, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(envKey); env != "" {
		return env, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt+": ")
	line, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(prompt))
	}
	return line, nil
}

// readLine reads up to a newline without buffering past it, so several
// prompts can share stdin.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}
