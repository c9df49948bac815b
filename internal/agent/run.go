package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vibecli/vibe/internal/backend"
	"github.com/vibecli/vibe/internal/backup"
	"github.com/vibecli/vibe/internal/platform"
	"github.com/vibecli/vibe/internal/protocol"
	"github.com/vibecli/vibe/internal/safety"
	"github.com/vibecli/vibe/internal/scan"
)

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	replyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	promptPrefix = "(You) > "
)

// Options configures a new Agent.
type Options struct {
	Root           string
	Model          string
	SkipContext    bool
	SkipFollowup   bool
	HistoryWindow  int
	CommandTimeout time.Duration
	IgnorePatterns []string
	MaxFileBytes   int
	BackupDir      string
	Client         backend.Client
	Prompter       safety.Prompter
	In             io.Reader
	Out            io.Writer
}

// Agent wires the session, dispatcher and backend into the interactive
// loop.
type Agent struct {
	opts       Options
	session    *Session
	dispatcher *Dispatcher
	client     backend.Client
	stale      *scan.StaleFlag
	rules      *scan.RuleSet
	in         *bufio.Reader
	out        io.Writer
}

// New assembles an Agent for the project root. The root directory is
// created when missing.
func New(opts Options) (*Agent, error) {
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, fmt.Errorf("preparing project root: %w", err)
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Prompter == nil {
		opts.Prompter = safety.NewTerminalPrompter(opts.In, opts.Out)
	}

	store, err := backup.NewStore(opts.Root, opts.BackupDir)
	if err != nil {
		return nil, err
	}

	rules := scan.LoadRuleSet(opts.Root, opts.IgnorePatterns)
	scanner := &scan.Scanner{Rules: rules, MaxFileBytes: opts.MaxFileBytes}
	session := NewSession(systemPrompt(), opts.HistoryWindow)
	stale := &scan.StaleFlag{}

	a := &Agent{
		opts:    opts,
		session: session,
		client:  opts.Client,
		stale:   stale,
		rules:   rules,
		in:      bufio.NewReader(opts.In),
		out:     opts.Out,
		dispatcher: &Dispatcher{
			Root:     opts.Root,
			Cwd:      opts.Root,
			Scanner:  scanner,
			Store:    store,
			Prompter: opts.Prompter,
			Runner:   &Runner{Timeout: opts.CommandTimeout},
			Pkg:      DetectPackageManager(opts.Root),
			Session:  session,
			Stale:    stale,
			Out:      opts.Out,
		},
	}
	return a, nil
}

// Run drives the interactive loop until the user exits or ctx is
// cancelled. Ctrl+C cancels the in-flight turn, not the session.
func (a *Agent) Run(ctx context.Context) error {
	a.printBanner()

	if !a.opts.SkipContext {
		fmt.Fprintf(a.out, "%s\n", infoStyle.Render("Scanning repo: "+a.opts.Root+"..."))
		a.dispatcher.RefreshContext()
	} else {
		fmt.Fprintln(a.out, warnStyle.Render("Skipping initial context load (--no-context)"))
	}

	// Background watcher marks the context stale when the tree changes
	// outside the agent's own actions.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go scan.Watch(watchCtx, a.opts.Root, a.rules, a.stale)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(a.out, promptPrefix)
		line, err := a.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		input := strings.TrimSpace(line)

		switch strings.ToLower(input) {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		case "":
			continue
		}

		if a.stale.Stale() {
			fmt.Fprintln(a.out, infoStyle.Render("Project changed on disk, refreshing context..."))
			a.dispatcher.RefreshContext()
		}

		if err := a.runTurn(ctx, input); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() == nil {
				fmt.Fprintln(a.out, warnStyle.Render("\nInterrupted."))
				continue
			}
			fmt.Fprintf(a.out, "%s\n", warnStyle.Render("Error: "+err.Error()))
		}
	}
}

// runTurn sends one user request and executes whatever actions the
// response contains. SIGINT cancels just this turn.
func (a *Agent) runTurn(ctx context.Context, input string) error {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a.session.Append(backend.RoleUser, input)
	a.session.Prune()

	fmt.Fprint(a.out, infoStyle.Render("Thinking...")+"\r")

	// Stream prose as it arrives, holding back command blocks.
	display := protocol.NewStreamScanner()
	full, err := a.client.Stream(turnCtx, a.session.Messages, func(delta string) error {
		fmt.Fprint(a.out, replyStyle.Render(display.Feed(delta)))
		return turnCtx.Err()
	})
	if tail := display.Flush(); tail != "" {
		fmt.Fprint(a.out, replyStyle.Render(tail))
	}
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}

	a.session.Append(backend.RoleAssistant, full)

	blocks, _ := protocol.Parse(full)
	results, acted := a.dispatcher.Dispatch(turnCtx, blocks)
	if !acted {
		return nil
	}

	a.session.Append(backend.RoleSystem, "SYSTEM: Results:\n"+strings.Join(FeedbackLines(results), "\n"))

	if HasErrors(results) {
		fmt.Fprintln(a.out, warnStyle.Render("Some actions failed or were denied. Waiting for your input."))
		return nil
	}

	if a.opts.SkipFollowup {
		return nil
	}

	fmt.Fprintln(a.out, infoStyle.Render("Getting follow-up..."))
	followup, err := a.client.Complete(turnCtx, a.session.Messages)
	if err != nil {
		return err
	}
	a.session.Append(backend.RoleAssistant, followup)

	_, residual := protocol.Parse(followup)
	if clean := strings.TrimSpace(residual); clean != "" {
		fmt.Fprintf(a.out, "%s\n", replyStyle.Render(clean))
	}
	return nil
}

func (a *Agent) printBanner() {
	platformName := "Unix/Mac"
	if platform.IsWindows {
		platformName = "Windows"
	}
	fmt.Fprintln(a.out, bannerStyle.Render("Vibe | "+a.opts.Model))
	fmt.Fprintln(a.out, infoStyle.Render("Root: "+a.opts.Root))
	fmt.Fprintln(a.out, infoStyle.Render("Platform: "+platformName))
	fmt.Fprintln(a.out, infoStyle.Render("Package manager: "+a.dispatcher.Pkg.Name))
	fmt.Fprintln(a.out, infoStyle.Render("Type 'exit' or 'quit' to end the session."))
	fmt.Fprintln(a.out)
}

func systemPrompt() string {
	platformName := "Unix/Mac"
	if platform.IsWindows {
		platformName = "Windows"
	}
	return `[CRITICAL CONFIGURATION]
You are Vibe, running in a LOCAL development environment.
The user has granted you FULL PERMISSION to create, edit, run, and DELETE files.
You are NOT a web-based chat bot. You are a CLI agent with a PERSISTENT SHELL.

PLATFORM: ` + platformName + `

PROTOCOL (strict command blocks):

>>> WRITE {file_path}
{full_file_content}
<<<

>>> READ {file_path_or_directory} <<<

>>> DELETE {file_path} <<<

>>> RUN {shell_command} <<<

>>> CD {directory} <<<

>>> INSTALL {package_manager} {package_name} <<<

>>> CREATE {framework} {project_name} [options] <<<

>>> SHADCN {component_name} <<<

>>> TREE <<<

>>> LISTFILES <<<

>>> REFRESH <<<

RULES:
- When using WRITE, provide the COMPLETE file content.
- Use relative paths from your CURRENT directory.
- For multi-step tasks, execute operations in logical order.
- READ accepts both files AND directories (directories are scraped recursively).
- Always use REFRESH after creating or deleting many files.
- Available CREATE templates: vite-react, vite-react-ts, next, astro, remix, nuxt, expo, t3, and more.`
}
