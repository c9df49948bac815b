package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vibecli/vibe/internal/agent"
	"github.com/vibecli/vibe/internal/backend"
	"github.com/vibecli/vibe/internal/config"
	"github.com/vibecli/vibe/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

var skipContext bool

var rootCmd = &cobra.Command{
	Use:   "vibe [target_dir]",
	Short: "An autonomous coding agent for your terminal",
	Long: `Vibe drives a chat model with full read/write/run access to one
project directory. The model requests actions through strict command
blocks; every destructive action is confirmed and backed up first.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup check for the setup command itself.
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() {
			if term.IsTerminal(os.Stdin.Fd()) {
				fmt.Println()
				fmt.Println("  Welcome to vibe! Looks like this is your first time.")
				if err := runSetup(true); err != nil {
					return err
				}
			}
			// Non-interactive (tests, pipes): continue with defaults, no profile required.
		}

		// Load profile (optional — may not exist in non-interactive environments).
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		// Load and merge config files. The project layer comes from the
		// target directory.
		target := targetDir(args)
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject(target)
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		// Profile model preference fills in when config leaves the default.
		if activeProfile != nil && activeProfile.Model != "" {
			cfg.Model = activeProfile.Model
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// .env in the working directory may carry the API key.
		_ = godotenv.Load()

		apiKey := os.Getenv("OPENROUTER_API_KEY")
		client, err := backend.NewOpenAIClient(apiKey, cfg.BaseURL, cfg.Model)
		if err != nil {
			return err
		}

		root, err := filepath.Abs(targetDir(args))
		if err != nil {
			return err
		}

		// The profile can turn the automatic follow-up turn off.
		skipFollowup := activeProfile != nil && !activeProfile.AutoFollowup

		a, err := agent.New(agent.Options{
			Root:           root,
			Model:          cfg.Model,
			SkipContext:    skipContext,
			SkipFollowup:   skipFollowup,
			HistoryWindow:  cfg.HistoryWindow,
			CommandTimeout: time.Duration(cfg.CommandTimeoutSecs) * time.Second,
			IgnorePatterns: cfg.IgnorePatterns,
			MaxFileBytes:   cfg.MaxFileBytes,
			BackupDir:      cfg.BackupDir,
			Client:         client,
		})
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}

// targetDir returns the positional project directory, defaulting to the
// current directory.
func targetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}

func init() {
	rootCmd.Flags().BoolVar(&skipContext, "no-context", false, "skip the initial repository scan")
}
