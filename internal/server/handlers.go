package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/recommend"
)

const (
	maxInputBytes = 64 << 10
	exportTimeout = 5 * time.Second
	tipsTimeout   = 30 * time.Second
)

// ErrNotFinished is returned when exporting a session that has no result yet.
var ErrNotFinished = errors.New("session has not finished")

type sessionResponse struct {
	ID string `json:"id"`
	engine.Snapshot
}

type inputRequest struct {
	Value *string `json:"value"`
}

type analysisResponse struct {
	Data            *model.Result      `json:"data"`
	Errors          []model.CharErrors `json:"errors"`
	Recommendations []string           `json:"recommendations"`
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	id, snap := s.manager.Create()
	s.log.Debugf("session %s created", id)
	respondJSON(w, sessionResponse{ID: id, Snapshot: snap}, http.StatusCreated)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, sessionResponse{ID: id, Snapshot: runner.Snapshot()}, http.StatusOK)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Remove(id); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setInput(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req inputRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBytes)).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Value == nil {
		respondError(w, "value is required", http.StatusBadRequest)
		return
	}
	snap, err := runner.SetInput(*req.Value)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, sessionResponse{ID: id, Snapshot: snap}, http.StatusOK)
}

func (s *Server) restartSession(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, sessionResponse{ID: id, Snapshot: runner.Start()}, http.StatusOK)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap, err := runner.Reset()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, sessionResponse{ID: id, Snapshot: snap}, http.StatusOK)
}

func (s *Server) exportResult(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap := runner.Snapshot()
	if snap.Phase != engine.PhaseFinished || snap.Result == nil {
		s.respondErr(w, ErrNotFinished)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()
	if err := s.slot.Save(ctx, *snap.Result); err != nil {
		s.log.Errorf("failed to save result for session %s: %v", id, err)
		respondError(w, "failed to save result", http.StatusInternalServerError)
		return
	}
	s.log.Infof("session %s exported: %d wpm, %.2f%% accuracy", id, snap.Result.WPM, snap.Result.Accuracy)
	respondJSON(w, snap.Result, http.StatusOK)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	res, err := s.slot.Load(r.Context())
	if err != nil {
		s.log.Debugf("no analysis data: %v", err)
		respondJSON(w, analysisResponse{
			Errors:          []model.CharErrors{},
			Recommendations: []string{recommend.NoDataMessage},
		}, http.StatusOK)
		return
	}
	histogram := recommend.ErrorHistogram(res.DetailedErrors)
	tips := []string{recommend.UnavailableMessage}
	if s.recommender != nil {
		ctx, cancel := context.WithTimeout(r.Context(), tipsTimeout)
		tips = s.recommender.Recommend(ctx, res.WPM, res.Accuracy, histogram)
		cancel()
	}
	respondJSON(w, analysisResponse{Data: &res, Errors: histogram, Recommendations: tips}, http.StatusOK)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *engine.Runner, bool) {
	id := chi.URLParam(r, "id")
	runner, err := s.manager.Get(id)
	if err != nil {
		s.respondErr(w, err)
		return id, nil, false
	}
	return id, runner, true
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrInvalidPhase),
		errors.Is(err, engine.ErrInputDisabled),
		errors.Is(err, ErrNotFinished):
		respondError(w, err.Error(), http.StatusConflict)
	default:
		s.log.Errorf("request failed: %v", err)
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}
