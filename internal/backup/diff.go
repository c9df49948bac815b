package backup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	diffAddStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	diffDelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	diffHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	diffCtxStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// contextLines bounds how many unchanged lines surround each change hunk.
const contextLines = 2

// Diff renders a colored line diff from old to new content, headed by the
// label. Unchanged runs are collapsed to a few context lines. Returns ""
// when the contents are equal.
func Diff(label, old, new string) string {
	if old == new {
		return ""
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var sb strings.Builder
	sb.WriteString(diffHeaderStyle.Render("--- "+label) + "\n")

	for _, d := range diffs {
		lines := splitDiffLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				sb.WriteString(diffAddStyle.Render("+ "+line) + "\n")
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range lines {
				sb.WriteString(diffDelStyle.Render("- "+line) + "\n")
			}
		case diffmatchpatch.DiffEqual:
			for _, line := range collapseContext(lines) {
				sb.WriteString(diffCtxStyle.Render("  "+line) + "\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func splitDiffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// collapseContext keeps the first and last contextLines of a long
// unchanged run, replacing the middle with an ellipsis line.
func collapseContext(lines []string) []string {
	if len(lines) <= 2*contextLines+1 {
		return lines
	}
	out := make([]string, 0, 2*contextLines+1)
	out = append(out, lines[:contextLines]...)
	out = append(out, "...")
	out = append(out, lines[len(lines)-contextLines:]...)
	return out
}
