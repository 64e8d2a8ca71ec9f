package voice

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind identifies a voice session event.
type EventKind string

// Session events as emitted by the hosted voice service.
const (
	EventCallStart   EventKind = "call-start"
	EventCallEnd     EventKind = "call-end"
	EventSpeechStart EventKind = "speech-start"
	EventSpeechEnd   EventKind = "speech-end"
	EventMessage     EventKind = "message"
	EventError       EventKind = "error"
)

// Message types and transcript stages.
const (
	MessageTypeTranscript = "transcript"
	TranscriptPartial     = "partial"
	TranscriptFinal       = "final"
)

// Message is the payload of a message event.
type Message struct {
	Type           string `json:"type"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Role           string `json:"role,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
}

// IsFinalTranscript reports whether m is a finalized transcript.
func (m Message) IsFinalTranscript() bool {
	return m.Type == MessageTypeTranscript && m.TranscriptType == TranscriptFinal
}

// Event is one event from a voice session.
type Event struct {
	Kind    EventKind
	Message *Message
	Err     error
}

type wireEvent struct {
	Type    string     `json:"type"`
	Message *Message   `json:"message,omitempty"`
	Error   *wireError `json:"error,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
}

// DecodeEvent parses one event frame from the session stream.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("decode voice event: %w", err)
	}

	switch kind := EventKind(w.Type); kind {
	case EventCallStart, EventCallEnd, EventSpeechStart, EventSpeechEnd:
		return Event{Kind: kind}, nil
	case EventMessage:
		if w.Message == nil {
			return Event{}, fmt.Errorf("decode voice event: message event without payload")
		}
		return Event{Kind: kind, Message: w.Message}, nil
	case EventError:
		msg := "unknown voice session error"
		if w.Error != nil && w.Error.Message != "" {
			msg = w.Error.Message
		}
		return Event{Kind: kind, Err: errors.New(msg)}, nil
	default:
		return Event{}, fmt.Errorf("decode voice event: unknown type %q", w.Type)
	}
}
