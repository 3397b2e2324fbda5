package agent

import (
	"errors"
	"os/exec"
	"strings"
)

// Prompter asks the user yes/no questions and collects short text answers.
// Implementations must be safe for use from bus handler goroutines.
type Prompter interface {
	// Confirm shows a yes/no question and reports the answer. Failures to
	// present the prompt count as no.
	Confirm(text string) bool

	// Ask shows an entry dialog and returns the submitted text.
	Ask(text string) (string, error)
}

// ZenityPrompter presents dialogs with the zenity command line tool.
//
// zenity exits 0 for yes/OK and 1 for no/cancel; anything else, including
// the binary being absent, is treated as a refusal so pairing can never be
// waved through silently.
type ZenityPrompter struct {
	logger Logger
}

// NewZenityPrompter creates a prompter backed by zenity dialogs.
func NewZenityPrompter() *ZenityPrompter {
	return &ZenityPrompter{logger: noopLogger{}}
}

// SetLogger sets the logger for the prompter.
func (p *ZenityPrompter) SetLogger(logger Logger) {
	p.logger = logger
}

// Confirm shows a question dialog and reports whether the user accepted.
func (p *ZenityPrompter) Confirm(text string) bool {
	cmd := exec.Command("zenity", "--question", "--text", text)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false
		}
		p.logger.Error("zenity prompt failed", "error", err)
		return false
	}
	return true
}

// Ask shows an entry dialog and returns the trimmed input.
func (p *ZenityPrompter) Ask(text string) (string, error) {
	cmd := exec.Command("zenity", "--entry", "--text", text)
	out, err := cmd.Output()
	if err != nil {
		p.logger.Error("zenity entry failed", "error", err)
		return "", ErrUserRejected
	}
	return strings.TrimSpace(string(out)), nil
}
