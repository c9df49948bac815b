// Package platform adapts shell commands to the host OS: Unix-to-Windows
// idiom translation, non-interactive fixes for scaffolding tools, and
// detection of long-running server commands.
package platform

import (
	"runtime"
	"sort"
	"strings"
)

// windowsIdioms maps common Unix command prefixes to their cmd.exe
// equivalents. Longer keys win so "ls -la" is matched before "ls".
var windowsIdioms = map[string]string{
	"ls":       "dir /b",
	"ls -l":    "dir",
	"ls -la":   "dir /a",
	"ls -R":    "tree /f /a",
	"pwd":      "cd",
	"cat":      "type",
	"cp":       "copy",
	"mv":       "move",
	"rm":       "del",
	"rm -rf":   "rmdir /s /q",
	"mkdir -p": "mkdir",
	"touch":    "type nul >",
	"clear":    "cls",
	"grep":     "findstr",
	"which":    "where",
}

// unixIdioms maps cmd.exe command prefixes back to their Unix
// equivalents for when the model emits Windows syntax on a Unix host.
// "cd" is deliberately absent, it is valid on both.
var unixIdioms = map[string]string{
	"dir":         "ls",
	"dir /b":      "ls",
	"dir /a":      "ls -la",
	"tree /f /a":  "ls -R",
	"type":        "cat",
	"copy":        "cp",
	"move":        "mv",
	"del":         "rm",
	"rmdir /s /q": "rm -rf",
	"cls":         "clear",
	"findstr":     "grep",
	"where":       "which",
}

// IsWindows reports whether the host needs cmd.exe idioms. A variable so
// tests can exercise both translations on any platform.
var IsWindows = runtime.GOOS == "windows"

// Translate rewrites a command for the host OS: Unix idioms become
// cmd.exe idioms on Windows and the reverse on other platforms. Only a
// whole-word prefix match triggers translation, so "lsof" is never
// touched by the "ls" rule. Returns the command and whether it was
// rewritten.
func Translate(command string) (string, bool) {
	if IsWindows {
		return translateWith(windowsIdioms, command)
	}
	return translateWith(unixIdioms, command)
}

func translateWith(table map[string]string, command string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(command))

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for _, from := range keys {
		if !strings.HasPrefix(lower, from) {
			continue
		}
		if len(lower) != len(from) && lower[len(from)] != ' ' {
			continue
		}
		rest := strings.TrimSpace(strings.TrimSpace(command)[len(from):])
		to := table[from]
		if rest == "" {
			return to, true
		}
		return to + " " + rest, true
	}
	return command, false
}

// NonBlocking wraps a server command so it runs in a new window on
// Windows instead of freezing the session.
func NonBlocking(command, cwd string) string {
	return `start "` + command + `" cmd /k "cd /d ` + cwd + ` && ` + command + `"`
}
