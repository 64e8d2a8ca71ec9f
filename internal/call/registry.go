package call

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/logging"
)

// DefaultRetention is how long a finished call stays queryable.
const DefaultRetention = 10 * time.Minute

// Entry is one tracked call.
type Entry struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Controller *Controller
	Hub        *Hub
	JoinURL    string
	CreatedAt  time.Time
}

// Registry tracks the calls started through the API.
type Registry struct {
	opener    Opener
	generator FeedbackGenerator
	settings  Settings
	retention time.Duration
	logger    *zap.Logger

	mu    sync.RWMutex
	calls map[uuid.UUID]*Entry
}

// NewRegistry creates an empty registry. A zero retention uses DefaultRetention.
func NewRegistry(opener Opener, generator FeedbackGenerator, settings Settings, retention time.Duration, logger *zap.Logger) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Registry{
		opener:    opener,
		generator: generator,
		settings:  settings,
		retention: retention,
		logger:    logging.OrNop(logger),
		calls:     make(map[uuid.UUID]*Entry),
	}
}

// Start creates a controller for p, opens its session and tracks it until
// retention expires after completion.
func (r *Registry) Start(ctx context.Context, p Params) (*Entry, error) {
	ctrl := NewController(r.opener, r.generator, r.settings, r.logger)
	hub := NewHub(ctrl.State())
	ctrl.Observe(hub.Publish)

	session, err := ctrl.Start(ctx, p)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:         uuid.New(),
		OwnerID:    p.UserID,
		Controller: ctrl,
		Hub:        hub,
		JoinURL:    session.JoinURL(),
		CreatedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	r.calls[entry.ID] = entry
	r.mu.Unlock()

	done := ctrl.Done()
	go func() {
		<-done
		time.AfterFunc(r.retention, func() { r.remove(entry.ID) })
	}()
	return entry, nil
}

// Get returns the call with id.
func (r *Registry) Get(id uuid.UUID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.calls[id]
	return e, ok
}

// Len returns the number of tracked calls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

func (r *Registry) remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.calls, id)
	r.mu.Unlock()
}
