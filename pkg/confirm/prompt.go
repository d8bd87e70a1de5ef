package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/alantheprice/angela/pkg/classifier"
)

// PromptRequest is what the user prompt contract (§4.2) says the formatter
// receives: command text, risk level/reason, impact summary, and optional
// preview/explanation/confidence.
type PromptRequest struct {
	Command     string
	Result      classifier.Result
	Preview     string
	Explanation string
	// Confidence is informational only; it never gates execution.
	Confidence    float64
	HasConfidence bool
}

// Formatter presents a PromptRequest to the user and returns whether they
// approved it.
type Formatter interface {
	Confirm(req PromptRequest) bool
}

// TerminalFormatter renders an ASCII-box prompt to stderr and reads a y/n
// answer line from stdin. Non-interactive sessions auto-deny.
type TerminalFormatter struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewTerminalFormatter builds a formatter bound to the process's stdin and
// stderr.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{In: bufio.NewReader(os.Stdin), Out: os.Stderr}
}

// IsInteractive reports whether stdin is a terminal. A non-interactive
// session (piped input, CI) can never be prompted, so the gate must treat
// it as an automatic deny.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (f *TerminalFormatter) Confirm(req PromptRequest) bool {
	if !IsInteractive() {
		return false
	}

	out := f.Out
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "+----------------------------------------------------------+")
	fmt.Fprintln(out, "|  CONFIRMATION REQUIRED                                    |")
	fmt.Fprintln(out, "+----------------------------------------------------------+")
	fmt.Fprintf(out, "Command: %s\n", req.Command)
	fmt.Fprintf(out, "Risk:    %s (%s)\n", req.Result.RiskLevel, req.Result.Reason)

	if ops := req.Result.Impact.Operations; len(ops) > 0 {
		fmt.Fprintf(out, "Impact:  %s\n", strings.Join(ops, ", "))
	}
	if paths := req.Result.Impact.AffectedPaths; len(paths) > 0 {
		fmt.Fprintf(out, "Paths:   %s\n", strings.Join(paths, ", "))
	}
	if req.Preview != "" {
		fmt.Fprintln(out, "Preview:")
		fmt.Fprintln(out, req.Preview)
	}
	if req.Explanation != "" {
		fmt.Fprintf(out, "Why:     %s\n", req.Explanation)
	}
	if req.HasConfidence {
		fmt.Fprintf(out, "Confidence: %.0f%% (informational only)\n", req.Confidence*100)
	}
	fmt.Fprintln(out, "")
	fmt.Fprint(out, "Proceed? [y/N]: ")

	for {
		line, err := f.In.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.TrimSpace(strings.ToLower(line)) {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		default:
			fmt.Fprint(out, "Please answer y or n: ")
		}
	}
}
