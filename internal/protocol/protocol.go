// Package protocol implements the command-block grammar the backend embeds
// in its prose. A block looks like:
//
//	>>> WRITE path/to/file.txt
//	file contents
//	<<<
//
// Single-line verbs close on the same or a following line:
//
//	>>> READ src/ <<<
//
// The parser is a single tokenizer pass with one grammar rule per verb, so
// one verb's matcher can never swallow another verb's block.
package protocol

import (
	"sort"
	"strings"
)

// Verb is the action keyword inside a command block.
type Verb string

const (
	VerbWrite     Verb = "WRITE"
	VerbRead      Verb = "READ"
	VerbDelete    Verb = "DELETE"
	VerbRun       Verb = "RUN"
	VerbInstall   Verb = "INSTALL"
	VerbCreate    Verb = "CREATE"
	VerbShadcn    Verb = "SHADCN"
	VerbTree      Verb = "TREE"
	VerbListFiles Verb = "LISTFILES"
	VerbRefresh   Verb = "REFRESH"
	VerbCD        Verb = "CD"
)

const (
	// StartMarker opens a command block, EndMarker closes it.
	StartMarker = ">>>"
	EndMarker   = "<<<"
)

// verbRule describes the grammar of a single verb.
type verbRule struct {
	hasBody  bool // body-bearing verbs consume lines until a closing marker line
	needsArg bool // argument line must be non-empty
	priority int  // execution order across a whole response, lower runs first
}

// Execution priority favors context-gathering verbs first so later writes
// and runs in the same response are informed by fresh reads. This mirrors
// the documented execution-order contract, not discovery order.
var verbRules = map[Verb]verbRule{
	VerbRead:      {needsArg: true, priority: 0},
	VerbTree:      {priority: 1},
	VerbListFiles: {priority: 2},
	VerbWrite:     {hasBody: true, needsArg: true, priority: 3},
	VerbCD:        {needsArg: true, priority: 4},
	VerbDelete:    {needsArg: true, priority: 5},
	VerbRun:       {needsArg: true, priority: 6},
	VerbInstall:   {needsArg: true, priority: 7},
	VerbCreate:    {needsArg: true, priority: 8},
	VerbShadcn:    {needsArg: true, priority: 9},
	VerbRefresh:   {priority: 10},
}

// CommandBlock is one parsed action request.
type CommandBlock struct {
	Verb Verb
	Args string // argument line with surrounding whitespace trimmed
	Body string // verbatim body, body-bearing verbs only
}

// SplitArgs splits the argument line into the first n whitespace-separated
// tokens plus the free-form remainder. Missing tokens come back empty.
func (b CommandBlock) SplitArgs(n int) (tokens []string, rest string) {
	fields := strings.Fields(b.Args)
	for i := 0; i < n; i++ {
		if i < len(fields) {
			tokens = append(tokens, fields[i])
		} else {
			tokens = append(tokens, "")
		}
	}
	if len(fields) > n {
		rest = strings.Join(fields[n:], " ")
	}
	return tokens, rest
}

// Parse extracts every well-formed command block from text. It returns the
// blocks ordered by verb priority (stable within a verb) and the residual
// prose with all matched blocks removed. Malformed or unclosed blocks are
// silently dropped and their text stays in the residual: the backend's
// prose is always shown to the operator even when its directives are broken.
func Parse(text string) ([]CommandBlock, string) {
	type span struct {
		block      CommandBlock
		start, end int
		seq        int
	}
	var spans []span

	pos := 0
	for {
		rel := strings.Index(text[pos:], StartMarker)
		if rel < 0 {
			break
		}
		start := pos + rel
		block, end, ok := matchBlock(text, start)
		if !ok {
			// Leniency: skip just the marker and keep scanning.
			pos = start + len(StartMarker)
			continue
		}
		spans = append(spans, span{block: block, start: start, end: end, seq: len(spans)})
		pos = end
	}

	if len(spans) == 0 {
		return nil, text
	}

	// Residual prose: input with matched spans cut out, in document order.
	var residual strings.Builder
	prev := 0
	for _, s := range spans {
		residual.WriteString(text[prev:s.start])
		prev = s.end
	}
	residual.WriteString(text[prev:])

	sort.SliceStable(spans, func(i, j int) bool {
		pi := verbRules[spans[i].block.Verb].priority
		pj := verbRules[spans[j].block.Verb].priority
		if pi != pj {
			return pi < pj
		}
		return spans[i].seq < spans[j].seq
	})

	blocks := make([]CommandBlock, len(spans))
	for i, s := range spans {
		blocks[i] = s.block
	}
	return blocks, residual.String()
}

// matchBlock attempts to match one block whose start marker begins at start.
// It returns the block and the index just past the closing marker.
func matchBlock(text string, start int) (CommandBlock, int, bool) {
	rest := text[start+len(StartMarker):]

	// The verb token follows optional spaces on the same line.
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	j := i
	for j < len(rest) && rest[j] >= 'A' && rest[j] <= 'Z' {
		j++
	}
	verb := Verb(rest[i:j])
	rule, known := verbRules[verb]
	if !known || j == i {
		return CommandBlock{}, 0, false
	}
	// The verb must be a whole word: followed by whitespace, the end
	// marker, or end of input.
	if j < len(rest) && !isWordBreak(rest[j:]) {
		return CommandBlock{}, 0, false
	}

	if rule.hasBody {
		return matchBodyBlock(text, start, verb, rest[j:])
	}
	return matchLineBlock(text, start, verb, rule, rest[j:])
}

// matchLineBlock handles single-line verbs: everything between the verb and
// the first end marker is the argument line.
func matchLineBlock(text string, start int, verb Verb, rule verbRule, tail string) (CommandBlock, int, bool) {
	endRel := strings.Index(tail, EndMarker)
	if endRel < 0 {
		return CommandBlock{}, 0, false
	}
	// A nested start marker before the close means this block never closed.
	if open := strings.Index(tail[:endRel], StartMarker); open >= 0 {
		return CommandBlock{}, 0, false
	}
	args := strings.TrimSpace(tail[:endRel])
	if rule.needsArg && args == "" {
		return CommandBlock{}, 0, false
	}
	if !rule.needsArg && args != "" {
		return CommandBlock{}, 0, false
	}
	consumed := len(text) - len(tail) + endRel + len(EndMarker) - start
	return CommandBlock{Verb: verb, Args: args}, start + consumed, true
}

// matchBodyBlock handles body-bearing verbs (WRITE): the remainder of the
// opening line is the argument line and every following line up to a line
// holding only the end marker is the body, preserved verbatim. An end
// marker embedded mid-line belongs to the body, so literal content that
// merely mentions the marker does not terminate the block.
func matchBodyBlock(text string, start int, verb Verb, tail string) (CommandBlock, int, bool) {
	nl := strings.IndexByte(tail, '\n')
	if nl < 0 {
		return CommandBlock{}, 0, false
	}
	args := strings.TrimSpace(tail[:nl])
	if args == "" {
		return CommandBlock{}, 0, false
	}

	body := tail[nl+1:]
	lineStart := 0
	for {
		lineEnd := strings.IndexByte(body[lineStart:], '\n')
		var line string
		if lineEnd < 0 {
			line = body[lineStart:]
		} else {
			line = body[lineStart : lineStart+lineEnd]
		}
		if strings.TrimSpace(line) == EndMarker {
			content := body[:lineStart]
			// Drop the newline that separates the body from the marker
			// line; embedded blank lines stay intact.
			content = strings.TrimSuffix(content, "\n")
			consumed := len(text) - len(body) + lineStart + len(line) - start
			return CommandBlock{Verb: verb, Args: args, Body: content}, start + consumed, true
		}
		if lineEnd < 0 {
			return CommandBlock{}, 0, false // unclosed
		}
		lineStart += lineEnd + 1
	}
}

// isWordBreak reports whether s begins with something that can legally
// follow a verb token.
func isWordBreak(s string) bool {
	if strings.HasPrefix(s, EndMarker) {
		return true
	}
	switch s[0] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
