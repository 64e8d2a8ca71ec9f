// Package voice wraps the hosted voice-agent service: it opens web calls and
// streams their session events.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/logging"
)

const eventBuffer = 64

// OpenRequest describes the call to open. Exactly one of WorkflowID and
// AssistantID is set.
type OpenRequest struct {
	WorkflowID  string
	AssistantID string
	Variables   map[string]string
}

type openBody struct {
	WorkflowID         string             `json:"workflowId,omitempty"`
	AssistantID        string             `json:"assistantId,omitempty"`
	AssistantOverrides assistantOverrides `json:"assistantOverrides"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

type callResponse struct {
	ID         string `json:"id"`
	WebCallURL string `json:"webCallUrl"`
	Monitor    struct {
		EventsURL  string `json:"eventsUrl"`
		ControlURL string `json:"controlUrl"`
	} `json:"monitor"`
}

// Client talks to the voice service REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *zap.Logger
}

// NewClient creates a voice client from configuration.
func NewClient(cfg config.VoiceConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dialer:     websocket.DefaultDialer,
		logger:     logging.OrNop(logger),
	}
}

// Open starts a web call and subscribes to its event stream.
func (c *Client) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	if req.WorkflowID == "" && req.AssistantID == "" {
		return nil, fmt.Errorf("voice open: workflow or assistant id is required")
	}

	body := openBody{
		WorkflowID:         req.WorkflowID,
		AssistantID:        req.AssistantID,
		AssistantOverrides: assistantOverrides{VariableValues: req.Variables},
	}

	var call callResponse
	if err := c.postJSON(ctx, "open", c.baseURL+"/call/web", body, &call); err != nil {
		return nil, err
	}
	if call.Monitor.EventsURL == "" {
		return nil, fmt.Errorf("voice open: call %s has no event stream", call.ID)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)
	conn, resp, err := c.dialer.DialContext(ctx, call.Monitor.EventsURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("voice open: dial event stream: %w", err)
	}

	s := &Session{
		id:         call.ID,
		joinURL:    call.WebCallURL,
		controlURL: call.Monitor.ControlURL,
		client:     c,
		conn:       conn,
		events:     make(chan Event, eventBuffer),
		done:       make(chan struct{}),
		logger:     c.logger.With(zap.String("call_id", call.ID)),
	}
	go s.readLoop()
	return s, nil
}

func (c *Client) postJSON(ctx context.Context, op, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("voice %s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("voice %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("voice %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("voice %s: decode response: %w", op, err)
	}
	return nil
}

// Session is one open voice call.
type Session struct {
	id         string
	joinURL    string
	controlURL string
	client     *Client
	conn       *websocket.Conn
	events     chan Event
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// ID returns the provider call id.
func (s *Session) ID() string { return s.id }

// JoinURL returns the URL the browser joins for audio.
func (s *Session) JoinURL() string { return s.joinURL }

// Events returns the session event stream. It is closed when the stream ends;
// a call-end event is always delivered before that unless Stop was called.
func (s *Session) Events() <-chan Event { return s.events }

// Stop asks the provider to end the call and closes the event stream.
func (s *Session) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		if s.controlURL != "" {
			err = s.client.postJSON(ctx, "stop", s.controlURL, map[string]string{"type": "end-call"}, nil)
		}
		close(s.done)
		_ = s.conn.Close()
	})
	return err
}

// Close drops the event stream without ending the call. Use it once the
// provider has already ended the call.
func (s *Session) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) readLoop() {
	defer close(s.events)

	ended := false
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !ended {
				s.logger.Debug("event stream closed without call-end", zap.Error(err))
				s.emit(Event{Kind: EventCallEnd})
			}
			return
		}

		ev, err := DecodeEvent(data)
		if err != nil {
			s.logger.Warn("skipping voice event", zap.Error(err))
			continue
		}
		if ev.Kind == EventError && IsBenign(ev.Err) {
			s.logger.Debug("ignoring benign voice error", zap.Error(ev.Err))
			continue
		}
		if ev.Kind == EventCallEnd {
			if ended {
				continue
			}
			ended = true
		}
		if !s.emit(ev) {
			return
		}
	}
}

func (s *Session) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}
