// Package safety gates destructive actions behind explicit user
// confirmation. Dangerous commands require typing a full confirmation
// phrase; a plain "y" is never enough.
package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase must be typed verbatim to run a dangerous command.
const ConfirmPhrase = "confirm"

// dangerousCommands are leading tokens that can destroy data or take the
// machine down.
var dangerousCommands = map[string]struct{}{
	"rm": {}, "del": {}, "format": {}, "mkfs": {}, "dd": {},
	"shutdown": {}, "reboot": {}, "diskpart": {},
}

// IsDangerous reports whether the command warrants the strong
// confirmation phrase. The leading token is checked against the
// denylist, plus a few patterns for recursive deletes near the
// filesystem root.
func IsDangerous(command string) bool {
	fields := strings.Fields(strings.ToLower(command))
	if len(fields) == 0 {
		return false
	}
	if _, ok := dangerousCommands[fields[0]]; ok {
		return true
	}

	lower := strings.ToLower(command)
	if strings.Contains(lower, "rm") && (strings.Contains(lower, "-r") || strings.Contains(lower, "/ ")) {
		return true
	}
	for _, verb := range []string{"del", "rmdir", "rd"} {
		if strings.Contains(lower, verb) && strings.Contains(lower, "/s") &&
			(strings.Contains(lower, `c:\`) || strings.Contains(lower, `d:\`)) {
			return true
		}
	}
	return false
}

// Prompter asks the user to approve actions before they run.
type Prompter interface {
	// Confirm asks a yes/no question; only "y" or "yes" approve.
	Confirm(prompt string) bool
	// ConfirmDangerous requires the exact confirmation phrase.
	ConfirmDangerous(prompt string) bool
}

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// TerminalPrompter reads confirmations line by line, normally from
// stdin.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter wires a prompter to the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s (y/n): ", promptStyle.Render(prompt))
	answer := p.readLine()
	return answer == "y" || answer == "yes"
}

// ConfirmDangerous requires the phrase verbatim; case matters.
func (p *TerminalPrompter) ConfirmDangerous(prompt string) bool {
	fmt.Fprintf(p.out, "%s Type '%s' to proceed: ", dangerStyle.Render(prompt), ConfirmPhrase)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == ConfirmPhrase
}

func (p *TerminalPrompter) readLine() string {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(line))
}
