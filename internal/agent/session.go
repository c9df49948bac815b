// Package agent holds the interactive session: conversation state, the
// action dispatcher that executes parsed command blocks, and the main
// read-eval loop.
package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/vibecli/vibe/internal/backend"
)

// contextMarker identifies the repository context entry in the history,
// so refreshes replace it in place instead of appending.
const contextMarker = "CURRENT REPO CONTEXT"

// DefaultHistoryWindow bounds how many exchange pairs survive pruning.
const DefaultHistoryWindow = 15

// Session tracks the conversation sent to the backend.
type Session struct {
	Messages      []backend.Message
	HistoryWindow int
}

// NewSession starts a conversation with the system instruction.
func NewSession(systemPrompt string, historyWindow int) *Session {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &Session{
		Messages:      []backend.Message{{Role: backend.RoleSystem, Content: systemPrompt}},
		HistoryWindow: historyWindow,
	}
}

// Append adds one message to the history.
func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, backend.Message{Role: role, Content: content})
}

// SetContext installs or replaces the repository context entry. A fresh
// entry goes right after the system instruction so it survives pruning.
func (s *Session) SetContext(body string) {
	entry := backend.Message{
		Role:    backend.RoleSystem,
		Content: fmt.Sprintf("HERE IS THE %s (Updated %s):\n\n%s", contextMarker, time.Now().Format("15:04:05"), body),
	}
	for i, m := range s.Messages {
		if m.Role == backend.RoleSystem && strings.Contains(m.Content, contextMarker) {
			s.Messages[i] = entry
			return
		}
	}
	rest := append([]backend.Message{entry}, s.Messages[1:]...)
	s.Messages = append(s.Messages[:1:1], rest...)
}

// HasContext reports whether a repository context entry is installed.
func (s *Session) HasContext() bool {
	for _, m := range s.Messages {
		if m.Role == backend.RoleSystem && strings.Contains(m.Content, contextMarker) {
			return true
		}
	}
	return false
}

// Prune drops the oldest conversation turns once the history exceeds the
// window, always keeping the two leading system entries.
func (s *Session) Prune() {
	keep := 2 * s.HistoryWindow
	lead := 2
	if len(s.Messages) < lead {
		lead = len(s.Messages)
	}
	if len(s.Messages)-lead <= keep {
		return
	}
	conversation := s.Messages[lead:]
	pruned := make([]backend.Message, 0, lead+keep)
	pruned = append(pruned, s.Messages[:lead]...)
	pruned = append(pruned, conversation[len(conversation)-keep:]...)
	s.Messages = pruned
}
