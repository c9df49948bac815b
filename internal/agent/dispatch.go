package agent

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vibecli/vibe/internal/backup"
	"github.com/vibecli/vibe/internal/platform"
	"github.com/vibecli/vibe/internal/protocol"
	"github.com/vibecli/vibe/internal/safety"
	"github.com/vibecli/vibe/internal/scan"
)

// ActionResult is the outcome of one executed command block. It is
// always textual and destined for the backend's context; failures are
// encoded in Message, never raised.
type ActionResult struct {
	OK      bool
	Message string
	Detail  string // optional payload: file content, command output, tree
}

// Feedback renders the result as the line(s) fed back to the backend.
func (r ActionResult) Feedback() string {
	if r.Detail == "" {
		return r.Message
	}
	return r.Message + "\n" + r.Detail
}

func fail(message string) ActionResult { return ActionResult{Message: message} }

func okf(format string, args ...any) ActionResult {
	return ActionResult{OK: true, Message: fmt.Sprintf(format, args...)}
}

func failf(format string, args ...any) ActionResult { return fail(fmt.Sprintf(format, args...)) }

// Dispatcher executes parsed command blocks against the project. It is
// stateless apart from the references it holds; only Cwd and the
// session's context entry carry across actions.
type Dispatcher struct {
	Root     string
	Cwd      string
	Scanner  *scan.Scanner
	Store    *backup.Store
	Prompter safety.Prompter
	Runner   *Runner
	Pkg      PackageManager
	Session  *Session
	Stale    *scan.StaleFlag
	Out      io.Writer
}

// Dispatch runs the blocks in order and reports whether any action ran.
// Blocks arrive already sorted by execution priority, reads before
// mutations.
func (d *Dispatcher) Dispatch(ctx context.Context, blocks []protocol.CommandBlock) ([]ActionResult, bool) {
	var results []ActionResult
	for _, b := range blocks {
		results = append(results, d.dispatchOne(ctx, b))
	}
	return results, len(blocks) > 0
}

func (d *Dispatcher) dispatchOne(ctx context.Context, b protocol.CommandBlock) ActionResult {
	switch b.Verb {
	case protocol.VerbRead:
		return d.handleRead(b.Args)
	case protocol.VerbTree:
		return d.handleTree()
	case protocol.VerbListFiles:
		return d.handleListFiles()
	case protocol.VerbWrite:
		return d.handleWrite(b.Args, b.Body)
	case protocol.VerbCD:
		return d.handleCD(b.Args)
	case protocol.VerbDelete:
		return d.handleDelete(b.Args)
	case protocol.VerbRun:
		return d.handleRun(ctx, b.Args)
	case protocol.VerbInstall:
		tokens, _ := b.SplitArgs(2)
		if tokens[1] == "" {
			return fail("SYSTEM: Error - INSTALL requires a package manager and a package name.")
		}
		return d.handleInstall(ctx, tokens[1])
	case protocol.VerbCreate:
		tokens, rest := b.SplitArgs(2)
		if tokens[1] == "" {
			return fail("SYSTEM: Error - CREATE requires a framework and a project name.")
		}
		return d.handleCreate(ctx, tokens[0], tokens[1], rest)
	case protocol.VerbShadcn:
		return d.handleShadcn(ctx, b.Args)
	case protocol.VerbRefresh:
		return d.RefreshContext()
	}
	return failf("SYSTEM: Error - Unsupported action %s.", b.Verb)
}

// HasErrors reports whether any result failed or was denied. The
// follow-up turn is skipped in that case so the model must react to the
// failure instead of building on it.
func HasErrors(results []ActionResult) bool {
	for _, r := range results {
		if !r.OK {
			return true
		}
	}
	return false
}

// FeedbackLines renders every result for the synthesized feedback
// message.
func FeedbackLines(results []ActionResult) []string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = r.Feedback()
	}
	return lines
}

// resolvePath joins rel to the current working directory, matching how
// RUN and CD resolve their arguments, and rejects paths that escape the
// project root.
func (d *Dispatcher) resolvePath(rel string) (string, error) {
	abs := filepath.Clean(filepath.Join(d.Cwd, filepath.FromSlash(rel)))
	if rp, err := filepath.Rel(d.Root, abs); err != nil || rp == ".." || strings.HasPrefix(rp, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the project root", rel)
	}
	return abs, nil
}

func (d *Dispatcher) handleRead(rel string) ActionResult {
	path, err := d.resolvePath(rel)
	if err != nil {
		return fail("SYSTEM: Error - Access denied. Can only read files inside project root.")
	}
	info, err := os.Stat(path)
	if err != nil {
		return failf("SYSTEM: Error - Path %s does not exist.", rel)
	}

	if info.IsDir() {
		content, err := d.Scanner.Scrape(d.Root, path)
		if err != nil {
			return failf("SYSTEM: Read error: %v", err)
		}
		return ActionResult{
			OK:      true,
			Message: fmt.Sprintf("SYSTEM: Scraped contents of directory '%s':", rel),
			Detail:  content,
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return failf("SYSTEM: Read error: %v", err)
	}
	return ActionResult{
		OK:      true,
		Message: fmt.Sprintf("SYSTEM: Content of %s:", rel),
		Detail:  string(data),
	}
}

func (d *Dispatcher) handleTree() ActionResult {
	tree := d.Scanner.Tree(d.Root)
	fmt.Fprintln(d.Out, tree)
	return ActionResult{OK: true, Message: "SYSTEM: Directory tree:", Detail: tree}
}

func (d *Dispatcher) handleListFiles() ActionResult {
	names, err := d.Scanner.List(d.Cwd)
	if err != nil {
		return failf("SYSTEM: Error listing files: %v", err)
	}
	listing := strings.Join(names, "\n")
	fmt.Fprintln(d.Out, listing)
	return ActionResult{OK: true, Message: "SYSTEM: Files in current directory:", Detail: listing}
}

func (d *Dispatcher) handleWrite(rel, content string) ActionResult {
	path, err := d.resolvePath(rel)
	if err != nil {
		return failf("SYSTEM: Error - %v", err)
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil

	if exists {
		if old, err := os.ReadFile(path); err == nil {
			if diff := backup.Diff(rel, string(old), content); diff != "" {
				fmt.Fprintf(d.Out, "\n--- DIFF CHECK ---\n%s\n------------------\n\n", diff)
			}
		}
	}

	if !d.Prompter.Confirm("Apply changes to " + rel + "?") {
		return failf("SYSTEM: User denied write to %s", rel)
	}

	if exists {
		if rec, err := d.Store.Backup(path); err == nil {
			fmt.Fprintf(d.Out, "Backup saved: %s\n", filepath.Base(rec.BackupPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return failf("SYSTEM: Write error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return failf("SYSTEM: Write error: %v", err)
	}
	return okf("SYSTEM: File %s updated successfully.", rel)
}

func (d *Dispatcher) handleCD(target string) ActionResult {
	newPath := filepath.Clean(filepath.Join(d.Cwd, filepath.FromSlash(target)))
	info, err := os.Stat(newPath)
	if err != nil {
		return failf("SYSTEM: Error - Directory '%s' does not exist.", target)
	}
	if !info.IsDir() {
		return failf("SYSTEM: Error - '%s' is not a directory.", target)
	}
	if rp, err := filepath.Rel(d.Root, newPath); err != nil || strings.HasPrefix(rp, "..") {
		return failf("SYSTEM: Error - '%s' is outside the project root.", target)
	}

	d.Cwd = newPath
	fmt.Fprintf(d.Out, "Changed directory to: %s\n", d.Cwd)
	refresh := d.RefreshContext()
	return ActionResult{
		OK:      refresh.OK,
		Message: "SYSTEM: Directory changed to " + d.Cwd,
		Detail:  refresh.Feedback(),
	}
}

func (d *Dispatcher) handleDelete(rel string) ActionResult {
	path, err := d.resolvePath(rel)
	if err != nil {
		return failf("SYSTEM: Error - %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return failf("SYSTEM: Error - Path %s does not exist.", rel)
	}

	itemType := "file"
	if info.IsDir() {
		itemType = "directory"
		if n := countFiles(path); n > 0 {
			fmt.Fprintf(d.Out, "This directory contains %d files\n", n)
		}
	}

	if !d.Prompter.Confirm("Delete this " + itemType + "?") {
		return failf("SYSTEM: User denied delete of %s", rel)
	}

	if info.IsDir() {
		if rec, err := d.Store.ArchiveDir(path); err == nil {
			fmt.Fprintf(d.Out, "Archive saved: %s\n", filepath.Base(rec.BackupPath))
		}
		if err := os.RemoveAll(path); err != nil {
			return failf("SYSTEM: Delete error: %v", err)
		}
		return okf("SYSTEM: Directory %s deleted successfully.", rel)
	}

	if rec, err := d.Store.Backup(path); err == nil {
		fmt.Fprintf(d.Out, "Backup saved: %s\n", filepath.Base(rec.BackupPath))
	}
	if err := os.Remove(path); err != nil {
		return failf("SYSTEM: Delete error: %v", err)
	}
	return okf("SYSTEM: File %s deleted successfully.", rel)
}

func (d *Dispatcher) handleRun(ctx context.Context, command string) ActionResult {
	command = strings.TrimSpace(command)

	// cd inside RUN changes tracked state instead of spawning a shell.
	// It goes through the same handler as the CD verb, so it is root
	// confined and refreshes the context too.
	if rest, isCD := strings.CutPrefix(command, "cd "); isCD {
		return d.handleCD(strings.TrimSpace(rest))
	}

	if translated, changed := platform.Translate(command); changed {
		fmt.Fprintf(d.Out, "Auto-converted: %s -> %s\n", command, translated)
		command = translated
	}

	if platform.IsCreateCommand(command) {
		fixed, warnings := platform.FixInteractive(command)
		for _, w := range warnings {
			fmt.Fprintln(d.Out, w)
		}
		if fixed != command {
			fmt.Fprintf(d.Out, "Modified: %s -> %s\n", command, fixed)
			command = fixed
		}
	}

	isServer := platform.IsServerCommand(command)
	if isServer {
		fmt.Fprintf(d.Out, "Likely server command detected: '%s'\n", command)
		if platform.IsWindows {
			// A new window keeps the session responsive while the
			// server runs.
			if d.Prompter.Confirm("Launch in a new window?") {
				if _, err := d.Runner.Run(ctx, platform.NonBlocking(command, d.Cwd), d.Cwd); err != nil {
					return failf("SYSTEM: Error launching server: %v", err)
				}
				return okf("SYSTEM: Launched '%s' in a new background window. The server is now running.", command)
			}
		}
		fmt.Fprintln(d.Out, "The session will freeze until Ctrl+C if this runs here.")
		if !d.Prompter.Confirm("Run here anyway?") {
			return okf("SYSTEM: Skipped '%s' to prevent freezing. User will run it manually.", command)
		}
	}

	// The danger phrase gates entry; the ordinary confirmation still
	// follows, so failing either one blocks the command.
	if safety.IsDangerous(command) {
		if !d.Prompter.ConfirmDangerous("DANGEROUS COMMAND!") {
			return fail("SYSTEM: Blocked dangerous command.")
		}
	}
	if !isServer {
		if !d.Prompter.Confirm("Execute?") {
			return fail("SYSTEM: User denied command execution.")
		}
	}

	res, err := d.Runner.Run(ctx, command, d.Cwd)
	if err == ErrCommandTimeout {
		return fail("SYSTEM: Command timeout.")
	}
	if err != nil {
		return failf("SYSTEM: Error: %v", err)
	}

	if res.Stdout != "" {
		fmt.Fprintf(d.Out, "Output:\n%s\n", res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprintf(d.Out, "--- stderr ---\n%s\n", res.Stderr)
	}
	return ActionResult{
		OK:      res.ExitCode == 0,
		Message: fmt.Sprintf("SYSTEM: Code: %d", res.ExitCode),
		Detail:  fmt.Sprintf("Out: %s\nErr: %s", res.Stdout, res.Stderr),
	}
}

func (d *Dispatcher) handleInstall(ctx context.Context, pkg string) ActionResult {
	return d.handleRun(ctx, d.Pkg.InstallCommand(pkg))
}

func (d *Dispatcher) handleCreate(ctx context.Context, framework, projectName, options string) ActionResult {
	command, note := ScaffoldCommand(framework, projectName, options)
	if note != "" {
		fmt.Fprintln(d.Out, note)
	}
	fmt.Fprintf(d.Out, "Command: %s\n", command)

	result := d.handleRun(ctx, command)

	// Enter the new project directory if scaffolding produced one.
	projectPath := filepath.Join(d.Cwd, projectName)
	if info, err := os.Stat(projectPath); err == nil && info.IsDir() {
		fmt.Fprintf(d.Out, "Project created. Auto-entering '%s'...\n", projectName)
		cdResult := d.handleCD(projectName)
		return ActionResult{
			OK:      result.OK && cdResult.OK,
			Message: result.Feedback() + "\n\nSYSTEM: Automatically entered new project directory.",
			Detail:  cdResult.Feedback(),
		}
	}
	return result
}

func (d *Dispatcher) handleShadcn(ctx context.Context, component string) ActionResult {
	return d.handleRun(ctx, "npx shadcn@latest add "+component+" -y")
}

// RefreshContext re-scans the project and replaces the context entry in
// the conversation.
func (d *Dispatcher) RefreshContext() ActionResult {
	content, err := d.Scanner.Scrape(d.Root, d.Root)
	if err != nil {
		return failf("SYSTEM: Error refreshing context: %v", err)
	}
	tree := d.Scanner.Tree(d.Root)
	combined := fmt.Sprintf("DIRECTORY STRUCTURE:\n%s\n\nFILE CONTENTS:\n%s", tree, content)

	d.Session.SetContext(combined)
	if d.Stale != nil {
		d.Stale.Clear()
	}
	return ActionResult{
		OK:      true,
		Message: "SYSTEM: Context refreshed.",
		Detail:  "Current Structure:\n" + tree,
	}
}

func countFiles(dir string) int {
	n := 0
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
