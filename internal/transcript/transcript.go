// Package transcript accumulates the finalized turns of a voice call.
package transcript

import (
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
	"github.com/jonathan/interview-coach/internal/voice"
)

// Role is the speaker of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known speaker roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSystem, RoleAssistant:
		return true
	}
	return false
}

// Message is one finalized turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FromVoice converts a voice message into a transcript turn. It returns false
// for partial transcripts, non-transcript messages, unknown roles and
// whitespace-only content. Content is kept verbatim.
func FromVoice(m voice.Message) (Message, bool) {
	if !m.IsFinalTranscript() {
		return Message{}, false
	}
	role := Role(strings.ToLower(strings.TrimSpace(m.Role)))
	if !role.Valid() {
		return Message{}, false
	}
	if strings.TrimSpace(m.Transcript) == "" {
		return Message{}, false
	}
	return Message{Role: role, Content: m.Transcript}, true
}

// Append returns messages with m added at the end. The input slice is never
// written through, so earlier snapshots stay valid.
func Append(messages []Message, m Message) []Message {
	out := make([]Message, len(messages), len(messages)+1)
	copy(out, messages)
	return append(out, m)
}

// Render returns one "- role: content" line per turn.
func Render(messages []Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString("- ")
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FromTypes converts request turns, dropping unknown roles and empty content.
func FromTypes(in []types.TranscriptMessage) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		role := Role(m.Role)
		content := strings.TrimSpace(m.Content)
		if !role.Valid() || content == "" {
			continue
		}
		out = append(out, Message{Role: role, Content: content})
	}
	return out
}
