package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/call"
	"github.com/jonathan/interview-coach/internal/server/middleware"
)

// keepAliveInterval spaces comments on idle event streams.
const keepAliveInterval = 15 * time.Second

type startCallRequest struct {
	Mode        call.Mode `json:"mode"`
	InterviewID uuid.UUID `json:"interviewId"`
}

type callView struct {
	ID          uuid.UUID  `json:"id"`
	Mode        call.Mode  `json:"mode"`
	InterviewID *uuid.UUID `json:"interviewId,omitempty"`
	JoinURL     string     `json:"joinUrl"`
	State       call.State `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func viewOf(e *call.Entry) callView {
	p := e.Controller.Params()
	v := callView{
		ID:        e.ID,
		Mode:      p.Mode,
		JoinURL:   e.JoinURL,
		State:     e.Hub.Latest(),
		CreatedAt: e.CreatedAt,
	}
	if p.InterviewID != uuid.Nil {
		id := p.InterviewID
		v.InterviewID = &id
	}
	return v
}

// handleStartCall opens a voice session in generate or interview mode.
func (s *Server) handleStartCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req startCallRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Mode.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "mode must be generate or interview")
		return
	}

	user, err := s.auth.CurrentUser(r.Context(), middleware.TokenFromRequest(r))
	if err != nil {
		s.authError(w, "current user lookup failed", err)
		return
	}

	params := call.Params{Mode: req.Mode, UserID: userID, UserName: user.Name}
	if req.Mode == call.ModeInterview {
		iv := s.interviews.ByID(r.Context(), req.InterviewID)
		if iv == nil {
			s.errorResponse(w, http.StatusNotFound, "interview not found")
			return
		}
		if !iv.Finalized || len(iv.Questions) == 0 {
			s.errorResponse(w, http.StatusConflict, "interview has no finalized questions")
			return
		}
		params.InterviewID = iv.ID
		params.Questions = iv.Questions
	}

	entry, err := s.calls.Start(r.Context(), params)
	if err != nil {
		if errors.Is(err, call.ErrCallInProgress) {
			s.errorResponse(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("failed to start call", zap.String("mode", string(req.Mode)), zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "could not connect to the voice service")
		return
	}
	s.jsonResponse(w, http.StatusCreated, viewOf(entry))
}

// ownedCall looks up a call and hides calls owned by other users.
func (s *Server) ownedCall(w http.ResponseWriter, r *http.Request) (*call.Entry, bool) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return nil, false
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	entry, found := s.calls.Get(id)
	if !found || entry.OwnerID != userID {
		s.errorResponse(w, http.StatusNotFound, "call not found")
		return nil, false
	}
	return entry, true
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.ownedCall(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, viewOf(entry))
}

// handleStopCall ends the call. Completion continues in the background;
// clients follow /calls/{id}/events for the redirect.
func (s *Server) handleStopCall(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.ownedCall(w, r)
	if !ok {
		return
	}
	if err := entry.Controller.Stop(r.Context()); err != nil {
		if errors.Is(err, call.ErrNotStarted) {
			s.errorResponse(w, http.StatusConflict, "call is not in progress")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.jsonResponse(w, http.StatusAccepted, viewOf(entry))
}

// handleCallEvents streams state changes until the call has a redirect.
func (s *Server) handleCallEvents(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.ownedCall(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Calls last longer than the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ch, latest := entry.Hub.Subscribe()
	defer entry.Hub.Unsubscribe(ch)

	if done := s.writeCallState(sse, latest); done {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	finished := entry.Controller.Done()

	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-ch:
			if s.writeCallState(sse, st) {
				return
			}
		case <-finished:
			// The subscriber buffer may have dropped the final state.
			s.writeCallState(sse, entry.Hub.Latest())
			return
		case <-ticker.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}

// writeCallState sends st and reports whether the stream is finished.
func (s *Server) writeCallState(sse *SSEWriter, st call.State) bool {
	if err := sse.WriteEvent("state", st); err != nil {
		return true
	}
	if st.Redirect == "" {
		return false
	}
	_ = sse.WriteEvent("redirect", map[string]string{"location": st.Redirect})
	return true
}
