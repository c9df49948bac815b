package platform

import (
	"strings"
	"testing"
)

func withWindows(t *testing.T, on bool) {
	t.Helper()
	old := IsWindows
	IsWindows = on
	t.Cleanup(func() { IsWindows = old })
}

func TestTranslateUnixHostKeepsUnixIdioms(t *testing.T) {
	withWindows(t, false)
	got, changed := Translate("ls -la")
	if changed || got != "ls -la" {
		t.Errorf("native idiom must not be rewritten, got %q (changed=%v)", got, changed)
	}
}

func TestTranslateWindowsIdiomsOnUnixHost(t *testing.T) {
	withWindows(t, false)

	cases := []struct {
		in, want string
	}{
		{"dir", "ls"},
		{"dir /a", "ls -la"},
		{"type notes.txt", "cat notes.txt"},
		{"rmdir /s /q build", "rm -rf build"},
		{"del file.txt", "rm file.txt"},
		{"findstr TODO src", "grep TODO src"},
		{"cls", "clear"},
	}
	for _, c := range cases {
		got, changed := Translate(c.in)
		if !changed || got != c.want {
			t.Errorf("Translate(%q) = %q (changed=%v), want %q", c.in, got, changed, c.want)
		}
	}
}

func TestTranslateCDUntouchedBothWays(t *testing.T) {
	for _, on := range []bool{true, false} {
		withWindows(t, on)
		if got, changed := Translate("cd src"); changed || got != "cd src" {
			t.Errorf("cd rewritten to %q (windows=%v)", got, on)
		}
	}
}

func TestTranslateWindowsIdioms(t *testing.T) {
	withWindows(t, true)

	cases := []struct {
		in, want string
	}{
		{"ls", "dir /b"},
		{"ls -la", "dir /a"}, // longest prefix wins over bare ls
		{"cat notes.txt", "type notes.txt"},
		{"rm -rf build", "rmdir /s /q build"},
		{"rm file.txt", "del file.txt"},
		{"grep TODO src", "findstr TODO src"},
		{"pwd", "cd"},
	}
	for _, c := range cases {
		got, changed := Translate(c.in)
		if !changed || got != c.want {
			t.Errorf("Translate(%q) = %q (changed=%v), want %q", c.in, got, changed, c.want)
		}
	}
}

func TestTranslateWholeWordOnly(t *testing.T) {
	withWindows(t, true)
	if got, changed := Translate("lsof -i :3000"); changed {
		t.Errorf("lsof should not match the ls rule, got %q", got)
	}
	if got, changed := Translate("catalog show"); changed {
		t.Errorf("catalog should not match the cat rule, got %q", got)
	}
}

func TestTranslateUnknownCommandUntouched(t *testing.T) {
	withWindows(t, true)
	if got, changed := Translate("node server.js"); changed || got != "node server.js" {
		t.Errorf("unknown command rewritten to %q", got)
	}
}

func TestIsCreateCommand(t *testing.T) {
	for _, cmd := range []string{
		"npm create vite@latest app",
		"npx create-next-app@latest site",
		"yarn create astro",
		"pnpm init",
	} {
		if !IsCreateCommand(cmd) {
			t.Errorf("%q should be a create command", cmd)
		}
	}
	if IsCreateCommand("npm run build") {
		t.Error("npm run build is not a create command")
	}
}

func TestFixInteractiveVite(t *testing.T) {
	fixed, warnings := FixInteractive("npm create vite@latest app")
	if !strings.Contains(fixed, "--yes") {
		t.Errorf("vite fix missing --yes: %q", fixed)
	}
	if !strings.Contains(fixed, "--template react-ts") {
		t.Errorf("vite fix missing default template: %q", fixed)
	}
	if len(warnings) == 0 {
		t.Error("expected a template warning")
	}
}

func TestFixInteractiveViteWithTemplateKept(t *testing.T) {
	in := "npm create vite@latest app -- --template vue --yes"
	fixed, _ := FixInteractive(in)
	if strings.Contains(fixed, "react-ts") {
		t.Errorf("explicit template must not be overridden: %q", fixed)
	}
}

func TestFixInteractiveNext(t *testing.T) {
	fixed, _ := FixInteractive("npx create-next-app@latest site")
	if !strings.HasSuffix(fixed, "--yes") {
		t.Errorf("next fix missing --yes: %q", fixed)
	}
	again, warnings := FixInteractive(fixed)
	if again != fixed || len(warnings) != 0 {
		t.Errorf("fix should be idempotent, got %q", again)
	}
}

func TestFixInteractiveShadcn(t *testing.T) {
	fixed, _ := FixInteractive("npx shadcn@latest add button")
	if !strings.HasSuffix(fixed, "-y") {
		t.Errorf("shadcn fix missing -y: %q", fixed)
	}
}

func TestFixInteractiveInit(t *testing.T) {
	fixed, _ := FixInteractive("npm init")
	if !strings.HasSuffix(fixed, "-y") {
		t.Errorf("init fix missing -y: %q", fixed)
	}
}

func TestFixInteractiveUnknownUntouched(t *testing.T) {
	fixed, warnings := FixInteractive("go test ./...")
	if fixed != "go test ./..." || len(warnings) != 0 {
		t.Errorf("unrelated command modified: %q %v", fixed, warnings)
	}
}

func TestIsServerCommand(t *testing.T) {
	for _, cmd := range []string{
		"npm run dev",
		"yarn start",
		"bun dev",
		"uvicorn main:app --reload",
		"nodemon server.js",
	} {
		if !IsServerCommand(cmd) {
			t.Errorf("%q should be detected as a server command", cmd)
		}
	}
	for _, cmd := range []string{"npm run build", "ls", "npm test"} {
		if IsServerCommand(cmd) {
			t.Errorf("%q wrongly detected as a server command", cmd)
		}
	}
}
