// Package call drives the lifecycle of one voice call: opening the session,
// collecting the transcript and deciding where the user goes when it ends.
package call

import (
	"github.com/jonathan/interview-coach/internal/transcript"
	"github.com/jonathan/interview-coach/internal/voice"
)

// Status is the lifecycle stage of a call.
type Status string

const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFinished   Status = "FINISHED"
)

// Live reports whether a call is connecting or in progress.
func (s Status) Live() bool {
	return s == StatusConnecting || s == StatusActive
}

// Mode selects what a finished call leads to.
type Mode string

const (
	// ModeGenerate runs the question-gathering workflow; the interview is
	// created server-side by the workflow's generate hook.
	ModeGenerate Mode = "generate"
	// ModeInterview runs a mock interview and scores it afterwards.
	ModeInterview Mode = "interview"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeGenerate || m == ModeInterview
}

// State is the full observable state of a call.
type State struct {
	Status      Status               `json:"status"`
	Mode        Mode                 `json:"mode,omitempty"`
	Speaking    bool                 `json:"speaking"`
	Messages    []transcript.Message `json:"messages"`
	LastMessage string               `json:"lastMessage,omitempty"`
	Redirect    string               `json:"redirect,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// EventType names an input to the reducer.
type EventType string

const (
	EventStartRequested    EventType = "start_requested"
	EventSessionOpenFailed EventType = "session_open_failed"
	EventCallStarted       EventType = "call_started"
	EventCallEnded         EventType = "call_ended"
	EventStopRequested     EventType = "stop_requested"
	EventSpeechStarted     EventType = "speech_started"
	EventSpeechEnded       EventType = "speech_ended"
	EventMessageReceived   EventType = "message_received"
	EventErrorReceived     EventType = "error_received"
	EventCompleted         EventType = "completed"
)

// Event is one reducer input.
type Event struct {
	Type     EventType
	Mode     Mode          // EventStartRequested
	Message  voice.Message // EventMessageReceived
	Err      error         // EventSessionOpenFailed, EventErrorReceived
	Redirect string        // EventCompleted
}

// EffectType names a side effect requested by the reducer.
type EffectType string

const (
	EffectOpenSession  EffectType = "open_session"
	EffectCloseSession EffectType = "close_session"
	// EffectReleaseSession drops the session stream after the provider hung up.
	EffectReleaseSession EffectType = "release_session"
	EffectComplete       EffectType = "complete"
	EffectLogError       EffectType = "log_error"
)

// Effect is work the controller performs after a transition.
type Effect struct {
	Type     EffectType
	Mode     Mode
	Messages []transcript.Message
	Err      error
}

// FromVoice translates a voice session event into a reducer event.
func FromVoice(ev voice.Event) (Event, bool) {
	switch ev.Kind {
	case voice.EventCallStart:
		return Event{Type: EventCallStarted}, true
	case voice.EventCallEnd:
		return Event{Type: EventCallEnded}, true
	case voice.EventSpeechStart:
		return Event{Type: EventSpeechStarted}, true
	case voice.EventSpeechEnd:
		return Event{Type: EventSpeechEnded}, true
	case voice.EventMessage:
		if ev.Message == nil {
			return Event{}, false
		}
		return Event{Type: EventMessageReceived, Message: *ev.Message}, true
	case voice.EventError:
		return Event{Type: EventErrorReceived, Err: ev.Err}, true
	}
	return Event{}, false
}

// Reduce applies ev to s and returns the next state with the effects the
// transition requires. It never mutates s.
//
// Entering FINISHED always yields exactly one EffectComplete. Events that do
// not apply to the current status leave the state unchanged.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev.Type {
	case EventStartRequested:
		if s.Status.Live() || !ev.Mode.Valid() {
			return s, nil
		}
		next := State{Status: StatusConnecting, Mode: ev.Mode}
		return next, []Effect{{Type: EffectOpenSession, Mode: ev.Mode}}

	case EventSessionOpenFailed:
		if s.Status != StatusConnecting {
			return s, nil
		}
		next := State{Status: StatusInactive, Mode: s.Mode, Error: errorText(ev.Err)}
		return next, []Effect{{Type: EffectLogError, Mode: s.Mode, Err: ev.Err}}

	case EventCallStarted:
		if s.Status != StatusConnecting {
			return s, nil
		}
		next := s
		next.Status = StatusActive
		return next, nil

	case EventCallEnded, EventStopRequested:
		if !s.Status.Live() {
			return s, nil
		}
		next := s
		next.Status = StatusFinished
		next.Speaking = false
		effects := make([]Effect, 0, 2)
		if ev.Type == EventStopRequested {
			effects = append(effects, Effect{Type: EffectCloseSession, Mode: s.Mode})
		} else {
			effects = append(effects, Effect{Type: EffectReleaseSession, Mode: s.Mode})
		}
		effects = append(effects, Effect{Type: EffectComplete, Mode: s.Mode, Messages: s.Messages})
		return next, effects

	case EventSpeechStarted, EventSpeechEnded:
		if !s.Status.Live() {
			return s, nil
		}
		next := s
		next.Speaking = ev.Type == EventSpeechStarted
		return next, nil

	case EventMessageReceived:
		if !s.Status.Live() {
			return s, nil
		}
		msg, ok := transcript.FromVoice(ev.Message)
		if !ok {
			return s, nil
		}
		next := s
		next.Messages = transcript.Append(s.Messages, msg)
		next.LastMessage = msg.Content
		return next, nil

	case EventErrorReceived:
		if !s.Status.Live() {
			return s, nil
		}
		return s, []Effect{{Type: EffectLogError, Mode: s.Mode, Err: ev.Err}}

	case EventCompleted:
		if s.Status != StatusFinished || s.Redirect != "" {
			return s, nil
		}
		next := s
		next.Redirect = ev.Redirect
		return next, nil
	}
	return s, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
