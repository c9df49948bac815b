package protocol

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestParseSingleWriteBlock(t *testing.T) {
	text := ">>> WRITE hello.txt\nHello World\n<<<"
	blocks, residual := Parse(text)
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Verb != VerbWrite {
		t.Errorf("verb: want WRITE, got %s", b.Verb)
	}
	if b.Args != "hello.txt" {
		t.Errorf("args: want %q, got %q", "hello.txt", b.Args)
	}
	if b.Body != "Hello World" {
		t.Errorf("body: want %q, got %q", "Hello World", b.Body)
	}
	if strings.TrimSpace(residual) != "" {
		t.Errorf("residual: want empty, got %q", residual)
	}
}

func TestParseBodyPreservesBlankLinesAndMarkers(t *testing.T) {
	body := "line one\n\nmentions <<< mid-line\n\nline five"
	text := "prose before\n>>> WRITE a/b.txt\n" + body + "\n<<<\nprose after"
	blocks, residual := Parse(text)
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(blocks))
	}
	if blocks[0].Body != body {
		t.Errorf("body not verbatim:\nwant %q\ngot  %q", body, blocks[0].Body)
	}
	if !strings.Contains(residual, "prose before") || !strings.Contains(residual, "prose after") {
		t.Errorf("residual lost surrounding prose: %q", residual)
	}
}

// Property: text containing no markers parses to zero blocks and the
// residual equals the input.
func TestParseNoMarkersIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 .,\n]{0,200}`).Draw(t, "text")
		blocks, residual := Parse(text)
		if len(blocks) != 0 {
			t.Fatalf("unexpected blocks in plain text: %v", blocks)
		}
		if residual != text {
			t.Fatalf("residual changed: want %q, got %q", text, residual)
		}
	})
}

// Property: a well-formed WRITE block round-trips its body verbatim,
// whatever the body contains, as long as no line is a bare end marker.
func TestParseWriteBodyRoundTrip(t *testing.T) {
	lineGen := rapid.StringMatching(`[a-zA-Z0-9 <>.=()]{0,40}`)
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "lines")
		var lines []string
		for i := 0; i < n; i++ {
			line := lineGen.Draw(t, "line")
			if strings.TrimSpace(line) == EndMarker || strings.Contains(line, StartMarker) {
				line = "x" + line
			}
			lines = append(lines, line)
		}
		body := strings.Join(lines, "\n")
		text := ">>> WRITE out.txt\n" + body + "\n<<<"

		blocks, _ := Parse(text)
		if len(blocks) != 1 {
			t.Fatalf("want 1 block, got %d (body %q)", len(blocks), body)
		}
		if blocks[0].Body != body {
			t.Fatalf("body mismatch:\nwant %q\ngot  %q", body, blocks[0].Body)
		}
	})
}

func TestParseUnclosedBlockDropped(t *testing.T) {
	text := "some prose\n>>> WRITE f.txt\nnever closed"
	blocks, residual := Parse(text)
	if len(blocks) != 0 {
		t.Fatalf("unclosed block should be dropped, got %v", blocks)
	}
	if !strings.Contains(residual, "never closed") {
		t.Errorf("residual should keep the broken text, got %q", residual)
	}
}

func TestParseUnknownVerbDropped(t *testing.T) {
	blocks, _ := Parse(">>> EXPLODE everything <<<")
	if len(blocks) != 0 {
		t.Fatalf("unknown verb should not parse, got %v", blocks)
	}
}

func TestParseZeroArgVerbs(t *testing.T) {
	for _, text := range []string{">>> TREE <<<", ">>> LISTFILES <<<", ">>> REFRESH <<<", ">>>REFRESH<<<"} {
		blocks, _ := Parse(text)
		if len(blocks) != 1 {
			t.Errorf("%q: want 1 block, got %d", text, len(blocks))
		}
	}
	// Zero-arg verbs with trailing junk are malformed.
	if blocks, _ := Parse(">>> TREE deeply <<<"); len(blocks) != 0 {
		t.Errorf("TREE with an argument should be dropped, got %v", blocks)
	}
}

func TestParseArgRequiredVerbs(t *testing.T) {
	if blocks, _ := Parse(">>> READ <<<"); len(blocks) != 0 {
		t.Errorf("READ without target should be dropped, got %v", blocks)
	}
	if blocks, _ := Parse(">>> RUN npm test <<<"); len(blocks) != 1 || blocks[0].Args != "npm test" {
		t.Errorf("RUN parse failed: %v", blocks)
	}
}

func TestParseExecutionPriority(t *testing.T) {
	text := ">>> RUN npm test <<<\n" +
		">>> WRITE f.txt\nbody\n<<<\n" +
		">>> READ src <<<\n" +
		">>> REFRESH <<<"
	blocks, _ := Parse(text)
	var got []Verb
	for _, b := range blocks {
		got = append(got, b.Verb)
	}
	want := []Verb{VerbRead, VerbWrite, VerbRun, VerbRefresh}
	if len(got) != len(want) {
		t.Fatalf("want %d blocks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: want %v, got %v", want, got)
		}
	}
}

func TestParseMultipleSameVerbKeepsDocumentOrder(t *testing.T) {
	text := ">>> READ a.txt <<<\n>>> READ b.txt <<<"
	blocks, _ := Parse(text)
	if len(blocks) != 2 || blocks[0].Args != "a.txt" || blocks[1].Args != "b.txt" {
		t.Fatalf("stable order lost: %v", blocks)
	}
}

func TestParseWriteBodyContainingOtherBlocks(t *testing.T) {
	// A WRITE body that documents the protocol itself must not be torn
	// apart by the other verbs' matchers.
	body := "usage:\n>>> RUN ls <<<\ndone"
	text := ">>> WRITE docs.md\n" + body + "\n<<<"
	blocks, _ := Parse(text)
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d: %v", len(blocks), blocks)
	}
	if blocks[0].Verb != VerbWrite || blocks[0].Body != body {
		t.Errorf("write body mangled: %q", blocks[0].Body)
	}
}

func TestSplitArgs(t *testing.T) {
	b := CommandBlock{Args: "next my-app --ts --tailwind"}
	tokens, rest := b.SplitArgs(2)
	if tokens[0] != "next" || tokens[1] != "my-app" {
		t.Errorf("tokens: got %v", tokens)
	}
	if rest != "--ts --tailwind" {
		t.Errorf("rest: got %q", rest)
	}

	tokens, rest = CommandBlock{Args: "npm"}.SplitArgs(2)
	if tokens[0] != "npm" || tokens[1] != "" || rest != "" {
		t.Errorf("short args: got %v %q", tokens, rest)
	}
}
