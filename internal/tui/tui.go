// Package tui provides a Bubble Tea browser for the project's backup
// history.
package tui

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vibecli/vibe/internal/backup"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	archiveBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	fileBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// previewCap bounds how much of a backed-up file is shown inline.
const previewCap = 8 * 1024

// ── Model ────────────────────

// Model is the root Bubble Tea model for the backup browser.
type Model struct {
	records  []backup.Record
	cursor   int
	expanded map[int]bool
	sortAsc  bool
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// New creates a browser over the backup records, newest first.
func New(records []backup.Record) Model {
	return Model{
		records:  records,
		expanded: make(map[int]bool),
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.rebuild()
				return m, nil
			}
		case "down", "j":
			if m.cursor < len(m.records)-1 {
				m.cursor++
				m.rebuild()
				return m, nil
			}
		case "s":
			m.sortAsc = !m.sortAsc
			m.sortRecords()
			m.cursor = 0
			m.expanded = make(map[int]bool)
			m.rebuild()
			m.viewport.GotoTop()
			return m, nil
		case "enter", " ":
			if len(m.records) > 0 {
				if m.expanded[m.cursor] {
					delete(m.expanded, m.cursor)
				} else {
					m.expanded[m.cursor] = true
				}
				m.rebuild()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// title(1) + statusBar(1) = 2 fixed rows
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport = viewport.New(m.width, vpHeight)
		m.rebuild()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  vibe — backups")

	hint := "  ↑/↓ select  enter expand  s sort  q quit"
	pct := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), statusBar)
}

// ── Rendering ─────────────────────────────────────────────────────────────────

func (m *Model) rebuild() {
	m.viewport.SetContent(m.render())
}

func (m *Model) sortRecords() {
	sort.SliceStable(m.records, func(i, j int) bool {
		if m.sortAsc {
			return m.records[i].Timestamp.Before(m.records[j].Timestamp)
		}
		return m.records[i].Timestamp.After(m.records[j].Timestamp)
	})
}

func (m *Model) render() string {
	var sb strings.Builder
	dir := "newest first"
	if m.sortAsc {
		dir = "oldest first"
	}
	sb.WriteString("\n" + sectionHeader.Render(fmt.Sprintf("  Backups (%d, %s)", len(m.records), dir)) + "\n\n")

	if len(m.records) == 0 {
		sb.WriteString(dimStyle.Render("  (no backups yet)") + "\n")
		return sb.String()
	}

	for i, rec := range m.records {
		ts := timeStyle.Render(rec.Timestamp.Format("2006-01-02 15:04:05"))
		badge := fileBadge.Render("[FILE]   ")
		if rec.IsArchive {
			badge = archiveBadge.Render("[ARCHIVE]")
		}
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[i] {
			toggle = dimStyle.Render("  ▼ ")
		}

		row := fmt.Sprintf("%s%s  %s  %s", toggle, ts, badge, rec.OriginalRel)
		if i == m.cursor {
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")

		if m.expanded[i] {
			sb.WriteString(m.renderPreview(rec))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderPreview shows a backed-up file's content, or an archive's entry
// list.
func (m *Model) renderPreview(rec backup.Record) string {
	var sb strings.Builder
	border := dimStyle.Render("  " + strings.Repeat("─", max(m.width-4, 8)))
	sb.WriteString(border + "\n")

	if rec.IsArchive {
		entries, err := archiveEntries(rec.BackupPath)
		if err != nil {
			sb.WriteString(dimStyle.Render("  [unreadable archive: "+err.Error()+"]") + "\n")
		} else {
			for _, e := range entries {
				sb.WriteString(dimStyle.Render("    "+e) + "\n")
			}
		}
	} else {
		data, err := os.ReadFile(rec.BackupPath)
		switch {
		case err != nil:
			sb.WriteString(dimStyle.Render("  [unreadable backup: "+err.Error()+"]") + "\n")
		default:
			content := string(data)
			truncated := false
			if len(content) > previewCap {
				content = content[:previewCap]
				truncated = true
			}
			for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
				sb.WriteString(dimStyle.Render("    "+line) + "\n")
			}
			if truncated {
				sb.WriteString(dimStyle.Render("    … (truncated)") + "\n")
			}
		}
	}

	sb.WriteString(border + "\n")
	return sb.String()
}

func archiveEntries(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, filepath.FromSlash(f.Name))
	}
	sort.Strings(names)
	return names, nil
}

// Run starts the backup browser over the records.
func Run(records []backup.Record) error {
	p := tea.NewProgram(New(records), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
