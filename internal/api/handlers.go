package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/models"
)

const (
	habitNotFound      = "Habit not found"
	streakNotFound     = "Streak not found"
	completionNotFound = "Completion not found"
)

type completeRequest struct {
	Count *int `json:"count" validate:"omitnil,min=1"`
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.ListHabits(r.Context())
	if err != nil {
		s.handleError(w, r, "list_habits", err, habitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	var req models.NewHabit
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validationMessage(req); msg != "" {
		s.metrics.ObserveError("create_habit", "validation")
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	habit, err := s.svc.CreateHabit(r.Context(), req)
	if err != nil {
		s.handleError(w, r, "create_habit", err, habitNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, habitNotFound)
		return
	}
	habit, err := s.svc.GetHabit(r.Context(), id)
	if err != nil {
		s.handleError(w, r, "get_habit", err, habitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (s *Server) archiveHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, habitNotFound)
		return
	}
	if err := s.svc.ArchiveHabit(r.Context(), id); err != nil {
		s.handleError(w, r, "archive_habit", err, habitNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordCompletion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, habitNotFound)
		return
	}

	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validationMessage(req); msg != "" {
		s.metrics.ObserveError("record_completion", "validation")
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	count := constants.DefaultCompletionCt
	if req.Count != nil {
		count = *req.Count
	}

	completion, err := s.svc.RecordCompletion(r.Context(), id, count, nil)
	if err != nil {
		s.handleError(w, r, "record_completion", err, habitNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, completion)
}

func (s *Server) getStreak(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, streakNotFound)
		return
	}
	streak, err := s.svc.GetStreak(r.Context(), id)
	if err != nil {
		s.handleError(w, r, "get_streak", err, streakNotFound)
		return
	}
	if streak == nil {
		writeError(w, http.StatusNotFound, streakNotFound)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

func (s *Server) listCompletions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusOK, []models.Completion{})
		return
	}
	completions, err := s.svc.ListCompletions(r.Context(), id)
	if err != nil {
		s.handleError(w, r, "list_completions", err, habitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, completions)
}

// parseBound parses a range query value. A plain date used as the end bound covers
// that whole day.
func (s *Server) parseBound(value string, end bool) (time.Time, error) {
	norm := s.svc.Normalizer()
	t, err := norm.ParseInstant(value)
	if err != nil {
		return time.Time{}, err
	}
	if end && len(value) == len(constants.DateFormat) {
		t = norm.EndOfDay(t)
	}
	return t, nil
}

func (s *Server) listCompletionsInRange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusOK, []models.Completion{})
		return
	}

	q := r.URL.Query()
	rawStart, rawEnd := q.Get("start"), q.Get("end")
	if rawStart == "" || rawEnd == "" {
		writeError(w, http.StatusBadRequest, "start and end are required")
		return
	}
	start, err := s.parseBound(rawStart, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start: "+err.Error())
		return
	}
	end, err := s.parseBound(rawEnd, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end: "+err.Error())
		return
	}

	completions, err := s.svc.ListCompletionsInRange(r.Context(), id, start, end)
	if err != nil {
		s.handleError(w, r, "list_completions_range", err, habitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, completions)
}

func (s *Server) deleteCompletion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, completionNotFound)
		return
	}
	if err := s.svc.DeleteCompletion(r.Context(), id); err != nil {
		s.handleError(w, r, "delete_completion", err, completionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
