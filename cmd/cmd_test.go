package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// isolateHome points HOME at a temp dir so tests never touch real state.
func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestTemplatesCommand(t *testing.T) {
	isolateHome(t)

	// Stdout capture: the command prints directly.
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	_, cmdErr := executeCommand(rootCmd, "templates")
	w.Close()
	os.Stdout = old

	if cmdErr != nil {
		t.Fatalf("templates failed: %v", cmdErr)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"vite-react", "next", "astro", "remix"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("template listing missing %q:\n%s", want, buf.String())
		}
	}
}

func TestBackupsPlainEmptyProject(t *testing.T) {
	isolateHome(t)
	project := t.TempDir()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	_, cmdErr := executeCommand(rootCmd, "backups", "--plain", project)
	w.Close()
	os.Stdout = old

	if cmdErr != nil {
		t.Fatalf("backups failed: %v", cmdErr)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No backups yet") {
		t.Errorf("expected empty-store message, got: %q", buf.String())
	}
	// The store creates its sidecar directory on open.
	if _, err := os.Stat(filepath.Join(project, ".vibe", "backups")); err != nil {
		t.Errorf("sidecar directory not created: %v", err)
	}
}

func TestRootRequiresAPIKey(t *testing.T) {
	isolateHome(t)
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := executeCommand(rootCmd, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no API key") {
		t.Errorf("expected missing-key error, got %v", err)
	}
}
