package call

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/feedback"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/metrics"
	"github.com/jonathan/interview-coach/internal/voice"
)

// HomePath is where every call that does not produce feedback ends up.
const HomePath = "/"

// FeedbackPath returns the feedback page of an interview.
func FeedbackPath(interviewID uuid.UUID) string {
	return "/interview/" + interviewID.String() + "/feedback"
}

var (
	// ErrCallInProgress is returned when Start is called on a live call.
	ErrCallInProgress = errors.New("call already in progress")
	// ErrNotStarted is returned when Stop is called without a live call.
	ErrNotStarted = errors.New("call not started")
)

// Session is an open voice session.
type Session interface {
	ID() string
	JoinURL() string
	Events() <-chan voice.Event
	// Stop ends the call on the provider and drops the stream.
	Stop(ctx context.Context) error
	// Close drops the stream of a call the provider already ended.
	Close() error
}

// Opener opens voice sessions.
type Opener interface {
	Open(ctx context.Context, req voice.OpenRequest) (Session, error)
}

// VoiceOpener adapts a voice.Client to Opener.
type VoiceOpener struct {
	Client *voice.Client
}

// Open implements Opener.
func (o VoiceOpener) Open(ctx context.Context, req voice.OpenRequest) (Session, error) {
	s, err := o.Client.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FeedbackGenerator scores a finished interview.
type FeedbackGenerator interface {
	Generate(ctx context.Context, req feedback.Request) feedback.Result
}

// Settings selects the hosted agents used per mode.
type Settings struct {
	WorkflowID  string
	AssistantID string
}

// Params describes one call.
type Params struct {
	Mode        Mode
	UserID      uuid.UUID
	UserName    string
	InterviewID uuid.UUID
	Questions   []string
}

// Validate checks that the parameters fit the mode.
func (p Params) Validate() error {
	switch p.Mode {
	case ModeGenerate:
		if p.UserID == uuid.Nil {
			return fmt.Errorf("generate call: user id is required")
		}
	case ModeInterview:
		if p.UserID == uuid.Nil || p.InterviewID == uuid.Nil {
			return fmt.Errorf("interview call: user id and interview id are required")
		}
		if len(p.Questions) == 0 {
			return fmt.Errorf("interview call: questions are required")
		}
	default:
		return fmt.Errorf("unknown call mode %q", p.Mode)
	}
	return nil
}

// FormatQuestions renders questions as "- q" lines for the interviewer prompt.
func FormatQuestions(questions []string) string {
	lines := make([]string, len(questions))
	for i, q := range questions {
		lines[i] = "- " + q
	}
	return strings.Join(lines, "\n")
}

func (p Params) openRequest(settings Settings) voice.OpenRequest {
	if p.Mode == ModeGenerate {
		return voice.OpenRequest{
			WorkflowID: settings.WorkflowID,
			Variables: map[string]string{
				"username": p.UserName,
				"userid":   p.UserID.String(),
			},
		}
	}
	return voice.OpenRequest{
		AssistantID: settings.AssistantID,
		Variables:   map[string]string{"questions": FormatQuestions(p.Questions)},
	}
}

// Observer receives every state change.
type Observer func(State)

// Controller owns one call. Events are applied one at a time under a mutex;
// effects run after the lock is released.
type Controller struct {
	opener    Opener
	generator FeedbackGenerator
	settings  Settings
	logger    *zap.Logger

	mu        sync.Mutex
	state     State
	params    Params
	session   Session
	gen       uint64
	done      chan struct{}
	observers []Observer
}

// NewController creates an idle controller.
func NewController(opener Opener, generator FeedbackGenerator, settings Settings, logger *zap.Logger) *Controller {
	done := make(chan struct{})
	close(done)
	return &Controller{
		opener:    opener,
		generator: generator,
		settings:  settings,
		logger:    logging.OrNop(logger),
		state:     State{Status: StatusInactive},
		done:      done,
	}
}

// Observe registers fn for state changes. fn runs with the controller locked
// and must not block or call back into the controller.
func (c *Controller) Observe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.state)
}

// Params returns the parameters of the current or last call.
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Done is closed once the current call has fully completed, including
// feedback generation and the final redirect.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Start opens a voice session for p. It returns once the session is open or
// opening failed; the call then continues in the background.
func (c *Controller) Start(ctx context.Context, p Params) (Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state.Status.Live() {
		c.mu.Unlock()
		return nil, ErrCallInProgress
	}
	c.gen++
	gen := c.gen
	c.params = p
	c.session = nil
	c.done = make(chan struct{})
	done := c.done
	effects := c.applyLocked(Event{Type: EventStartRequested, Mode: p.Mode})
	c.mu.Unlock()

	if len(effects) == 0 {
		close(done)
		return nil, ErrCallInProgress
	}

	// The call outlives the request that started it.
	bg := context.WithoutCancel(ctx)

	session, err := c.opener.Open(ctx, p.openRequest(c.settings))
	if err != nil {
		// A Stop during CONNECTING already finished the call, and its
		// completion owns done.
		c.mu.Lock()
		owned := c.gen == gen && c.state.Status == StatusConnecting
		if owned {
			effects = c.applyLocked(Event{Type: EventSessionOpenFailed, Err: err})
		}
		c.mu.Unlock()

		if owned {
			for _, eff := range effects {
				c.run(bg, gen, p, done, eff)
			}
			close(done)
		}
		return nil, fmt.Errorf("open voice session: %w", err)
	}

	c.mu.Lock()
	current := c.gen == gen && c.state.Status.Live()
	if current {
		c.session = session
	}
	c.mu.Unlock()

	if !current {
		// Stopped while connecting.
		if err := session.Stop(bg); err != nil {
			c.logger.Warn("failed to stop voice session", zap.Error(err))
		}
		return session, nil
	}

	metrics.CallStarted(string(p.Mode))
	c.logger.Info("call started",
		zap.String("mode", string(p.Mode)),
		zap.String("session_id", session.ID()),
		zap.String("user_id", p.UserID.String()))
	go c.pump(bg, gen, session)
	return session, nil
}

// Stop ends the live call.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Status.Live() {
		c.mu.Unlock()
		return ErrNotStarted
	}
	gen := c.gen
	c.mu.Unlock()

	c.dispatch(context.WithoutCancel(ctx), gen, Event{Type: EventStopRequested})
	return nil
}

func (c *Controller) pump(ctx context.Context, gen uint64, session Session) {
	for ev := range session.Events() {
		if e, ok := FromVoice(ev); ok {
			c.dispatch(ctx, gen, e)
		}
	}
}

// dispatch applies ev if it belongs to the current call and runs the
// resulting effects.
func (c *Controller) dispatch(ctx context.Context, gen uint64, ev Event) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	effects := c.applyLocked(ev)
	params := c.params
	done := c.done
	c.mu.Unlock()

	for _, eff := range effects {
		c.run(ctx, gen, params, done, eff)
	}
}

func (c *Controller) applyLocked(ev Event) []Effect {
	prev := c.state
	next, effects := Reduce(c.state, ev)
	c.state = next
	if !sameState(prev, next) {
		snap := snapshot(next)
		for _, fn := range c.observers {
			fn(snap)
		}
	}
	return effects
}

func (c *Controller) run(ctx context.Context, gen uint64, p Params, done chan struct{}, eff Effect) {
	switch eff.Type {
	case EffectLogError:
		c.logger.Warn("voice session error",
			zap.String("mode", string(eff.Mode)),
			zap.Error(eff.Err))

	case EffectCloseSession, EffectReleaseSession:
		c.mu.Lock()
		session := c.session
		c.mu.Unlock()
		if session == nil {
			return
		}
		if eff.Type == EffectReleaseSession {
			if err := session.Close(); err != nil {
				c.logger.Debug("failed to close voice session stream", zap.Error(err))
			}
			return
		}
		if err := session.Stop(ctx); err != nil {
			c.logger.Warn("failed to stop voice session", zap.Error(err))
		}

	case EffectComplete:
		go c.complete(ctx, gen, p, done, eff)
	}
}

// complete decides where the user goes once the call finished. It runs once
// per call because the reducer emits EffectComplete only on entering FINISHED.
func (c *Controller) complete(ctx context.Context, gen uint64, p Params, done chan struct{}, eff Effect) {
	redirect := HomePath
	defer func() {
		c.dispatch(ctx, gen, Event{Type: EventCompleted, Redirect: redirect})
		metrics.CallFinished(string(eff.Mode), redirect)
		c.logger.Info("call finished",
			zap.String("mode", string(eff.Mode)),
			zap.Int("turns", len(eff.Messages)),
			zap.String("redirect", redirect))
		close(done)
	}()

	if eff.Mode != ModeInterview {
		return
	}
	if len(eff.Messages) == 0 {
		c.logger.Info("interview ended without transcript, skipping feedback",
			zap.String("interview_id", p.InterviewID.String()))
		return
	}
	if c.generator == nil {
		return
	}

	res := c.generator.Generate(ctx, feedback.Request{
		InterviewID: p.InterviewID,
		UserID:      p.UserID,
		Transcript:  eff.Messages,
	})
	if res.Success {
		redirect = FeedbackPath(p.InterviewID)
	}
}

func sameState(a, b State) bool {
	return a.Status == b.Status &&
		a.Mode == b.Mode &&
		a.Speaking == b.Speaking &&
		len(a.Messages) == len(b.Messages) &&
		a.LastMessage == b.LastMessage &&
		a.Redirect == b.Redirect &&
		a.Error == b.Error
}

func snapshot(s State) State {
	if s.Messages != nil {
		s.Messages = append(s.Messages[:0:0], s.Messages...)
	}
	return s
}
