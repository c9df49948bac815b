package protocol

import "strings"

// scanState tracks where the incremental scanner is in the block grammar.
type scanState int

const (
	scanPlain   scanState = iota // ordinary prose, safe to display
	scanInBlock                  // between a start marker and its close
)

// StreamScanner filters a streamed backend response incrementally, passing
// through prose and suppressing command blocks as they arrive. It keeps
// explicit state across chunks instead of re-scanning the whole growing
// buffer on every increment, so a marker split across two chunks is still
// recognized.
type StreamScanner struct {
	state     scanState
	pending   string // unprocessed tail that may hold a partial marker
	sawAny    bool
	verbKnown bool // set once the block's verb token is complete
	bodyBlock bool // body-bearing verbs close only on a bare marker line
}

// NewStreamScanner returns a scanner in the plain-text state.
func NewStreamScanner() *StreamScanner {
	return &StreamScanner{}
}

// Feed consumes the next chunk and returns the portion that is displayable
// prose. Text inside command blocks, and the markers themselves, are
// suppressed.
func (s *StreamScanner) Feed(chunk string) string {
	s.pending += chunk
	var out strings.Builder

	for {
		switch s.state {
		case scanPlain:
			idx := strings.Index(s.pending, StartMarker)
			if idx < 0 {
				// Emit everything except a tail that could be the start
				// of a marker arriving in the next chunk.
				keep := partialMarkerLen(s.pending, StartMarker)
				out.WriteString(s.pending[:len(s.pending)-keep])
				s.pending = s.pending[len(s.pending)-keep:]
				return out.String()
			}
			out.WriteString(s.pending[:idx])
			s.pending = s.pending[idx+len(StartMarker):]
			s.state = scanInBlock
			s.sawAny = true

		case scanInBlock:
			if !s.verbKnown && !s.detectVerb() {
				return out.String() // verb token still incomplete
			}

			if !s.bodyBlock {
				idx := strings.Index(s.pending, EndMarker)
				if idx < 0 {
					keep := partialMarkerLen(s.pending, EndMarker)
					s.pending = s.pending[len(s.pending)-keep:]
					return out.String()
				}
				s.pending = s.pending[idx+len(EndMarker):]
				s.closeBlock()
				continue
			}

			// A body block closes only on a line holding just the end
			// marker, like the parser: a marker mentioned mid-line
			// belongs to the body and stays suppressed.
			closed := false
			for !closed {
				nl := strings.IndexByte(s.pending, '\n')
				if nl < 0 {
					return out.String() // wait for the line to complete
				}
				if strings.TrimSpace(s.pending[:nl]) == EndMarker {
					closed = true
				}
				s.pending = s.pending[nl+1:]
			}
			s.closeBlock()
		}
	}
}

// detectVerb inspects the pending text for the block's verb token and
// records whether the block carries a body. Returns false while the token
// may still be continued by the next chunk.
func (s *StreamScanner) detectVerb() bool {
	i := 0
	for i < len(s.pending) && (s.pending[i] == ' ' || s.pending[i] == '\t') {
		i++
	}
	j := i
	for j < len(s.pending) && s.pending[j] >= 'A' && s.pending[j] <= 'Z' {
		j++
	}
	if j == len(s.pending) {
		return false
	}
	s.bodyBlock = verbRules[Verb(s.pending[i:j])].hasBody
	s.verbKnown = true
	return true
}

func (s *StreamScanner) closeBlock() {
	s.state = scanPlain
	s.verbKnown = false
	s.bodyBlock = false
}

// Flush returns any retained tail once the stream is complete. An unclosed
// block is dropped, matching the parser's leniency.
func (s *StreamScanner) Flush() string {
	out := ""
	if s.state == scanPlain {
		out = s.pending
	}
	s.pending = ""
	return out
}

// SawBlock reports whether any start marker was observed so far. The loop
// uses this to decide whether the displayed stream was filtered.
func (s *StreamScanner) SawBlock() bool {
	return s.sawAny
}

// partialMarkerLen returns the length of the longest suffix of s that is a
// proper prefix of marker.
func partialMarkerLen(s, marker string) int {
	max := len(marker) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(s, marker[:n]) {
			return n
		}
	}
	return 0
}
