package safety

import (
	"io"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestIsDangerous(t *testing.T) {
	cases := []struct {
		cmd  string
		want bool
	}{
		{"rm file.txt", true},
		{"rm -rf node_modules", true},
		{"del build", true},
		{"format c:", true},
		{"dd if=/dev/zero of=/dev/sda", true},
		{"shutdown now", true},
		{"diskpart", true},
		{"ls -la", false},
		{"npm install", false},
		{"echo rm is a command", true}, // substring heuristic stays conservative
		{"git status", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsDangerous(c.cmd); got != c.want {
			t.Errorf("IsDangerous(%q) = %v, want %v", c.cmd, got, c.want)
		}
	}
}

func TestIsDangerousCaseInsensitive(t *testing.T) {
	if !IsDangerous("RM -RF /tmp/x") {
		t.Error("uppercase variants must still trip the gate")
	}
}

func newPrompter(input string) *TerminalPrompter {
	return NewTerminalPrompter(strings.NewReader(input), io.Discard)
}

func TestConfirmAccepts(t *testing.T) {
	for _, in := range []string{"y\n", "yes\n", "Y\n", "YES\n"} {
		if !newPrompter(in).Confirm("run?") {
			t.Errorf("input %q should approve", in)
		}
	}
}

func TestConfirmRejects(t *testing.T) {
	for _, in := range []string{"n\n", "no\n", "\n", "maybe\n", ""} {
		if newPrompter(in).Confirm("run?") {
			t.Errorf("input %q should reject", in)
		}
	}
}

func TestConfirmDangerousRequiresPhrase(t *testing.T) {
	if !newPrompter("confirm\n").ConfirmDangerous("sure?") {
		t.Error("exact phrase should approve")
	}
	if !newPrompter("  confirm  \n").ConfirmDangerous("sure?") {
		t.Error("surrounding whitespace is tolerated")
	}
	for _, in := range []string{"y\n", "yes\n", "\n", "Confirm\n", "CONFIRM\n", "confirmed\n", ""} {
		if newPrompter(in).ConfirmDangerous("sure?") {
			t.Errorf("input %q must not pass the danger gate", in)
		}
	}
}

// No casual approval ever satisfies the danger gate, whatever its casing
// or padding.
func TestDangerGateNeverAcceptsYesRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.SampledFrom([]string{"y", "yes", "Y", "YES", "Yes", ""}).Draw(t, "word")
		pad := rapid.StringMatching(`[ \t]{0,3}`).Draw(t, "pad")
		if newPrompter(pad + word + pad + "\n").ConfirmDangerous("sure?") {
			t.Fatalf("%q passed the danger gate", pad+word+pad)
		}
	})
}
