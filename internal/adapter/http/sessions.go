package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/geoguess-service/internal/game"
	"github.com/couchcryptid/geoguess-service/internal/round"
)

const maxBodyBytes = 4 << 10

type guessRequest struct {
	Guess string `json:"guess"`
}

type viewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type guessResponse struct {
	Outcome  game.Outcome  `json:"outcome"`
	Snapshot game.Snapshot `json:"snapshot"`
}

// handleCreate opens a session. Query parameters carry the deep-link
// settings: location, layers ("all" or a comma list), admin, and optionally
// the initial width and height of the map container.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := game.ParseOptions(q.Get("location"), q.Get("layers"), q.Get("admin"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	width, err := optionalInt(q.Get("width"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "width: "+err.Error())
		return
	}
	height, err := optionalInt(q.Get("height"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "height: "+err.Error())
		return
	}

	g, err := s.sessions.Create(r.Context(), opts, width, height)
	if err != nil {
		s.logger.Error("create session failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "could not create session")
		return
	}
	w.Header().Set("Location", "/api/sessions/"+g.ID())
	sharedobs.WriteJSON(w, http.StatusCreated, g.Snapshot())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	g, ok := s.session(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	g, ok := s.session(w, r)
	if !ok {
		return
	}
	var req guessRequest
	if !decodeBody(w, r, &req) {
		return
	}

	out, err := g.Submit(r.Context(), req.Guess)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, guessResponse{Outcome: out, Snapshot: g.Snapshot()})
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	g, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := g.Rotate(); err != nil {
		s.writeSessionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	g, ok := s.session(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	g.SetViewport(req.Width, req.Height)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	g, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeSessionError(w, err)
		return nil, false
	}
	return g, true
}

// writeSessionError maps game errors to status codes.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, game.ErrClosed):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, round.ErrReadOnly):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, round.ErrFinished):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("session request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed body: %v", err))
		return false
	}
	return true
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
