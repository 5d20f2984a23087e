package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jpalmerr/tileboard/internal/scheduler"
)

type statsResponse struct {
	Scheduler    scheduler.Stats     `json:"scheduler"`
	DedupeGroups map[string][]string `json:"dedupe_groups"`
	Caches       []cacheStats        `json:"caches"`
}

type cacheStats struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// handleListTasks returns task states, optionally filtered by ?type= or
// restricted to non-stopped tasks with ?active=true.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var states []scheduler.TaskState
	switch {
	case q.Get("type") != "":
		typ := scheduler.Type(q.Get("type"))
		if !typ.Valid() {
			s.writeError(w, http.StatusBadRequest, "unknown task type: "+q.Get("type"))
			return
		}
		states = s.deps.Scheduler.TasksByType(typ)
	case q.Get("active") == "true":
		states = s.deps.Scheduler.ActiveTasks()
	default:
		states = s.deps.Scheduler.AllTaskStates()
	}
	if states == nil {
		states = []scheduler.TaskState{}
	}
	s.writeJSON(w, http.StatusOK, states)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	s.writeTaskState(w, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) handleStopTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Widgets.Stop(id) {
		s.writeError(w, http.StatusNotFound, "task not found: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePauseTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Widgets.Pause(id) {
		s.writeError(w, http.StatusNotFound, "task not found: "+id)
		return
	}
	s.writeTaskState(w, id, http.StatusOK)
}

// handleResumeTask resumes a paused task. The response carries the
// resulting state, so a task left in "error" is visible to the caller.
func (s *Server) handleResumeTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Widgets.Resume(id) {
		s.writeError(w, http.StatusNotFound, "task not found: "+id)
		return
	}
	s.writeTaskState(w, id, http.StatusOK)
}

// handleRunTask runs the task synchronously within the request. The run is
// detached from the request's cancellation so a client disconnect does not
// count as a task failure.
func (s *Server) handleRunTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Widgets.RunNow(context.WithoutCancel(r.Context()), id) {
		if state, ok := s.deps.Scheduler.TaskState(id); ok {
			if state.Status == scheduler.StatusPaused {
				s.writeError(w, http.StatusConflict, "task is paused: "+id)
				return
			}
			s.writeError(w, http.StatusConflict, "task is already running: "+id)
			return
		}
		s.writeError(w, http.StatusNotFound, "task not found: "+id)
		return
	}
	s.writeTaskState(w, id, http.StatusOK)
}

// handleRestartTask re-registers a widget's task, clearing an error state.
func (s *Server) handleRestartTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	known, err := s.deps.Widgets.Restart(id)
	if !known {
		s.writeError(w, http.StatusNotFound, "widget not found: "+id)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeTaskState(w, id, http.StatusOK)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Scheduler:    s.deps.Scheduler.Stats(),
		DedupeGroups: s.deps.Scheduler.DedupeGroups(),
		Caches:       []cacheStats{},
	}
	if s.deps.Feeds != nil {
		c := s.deps.Feeds.Cache()
		resp.Caches = append(resp.Caches, cacheStats{Name: c.Name(), Entries: c.Len()})
	}
	if s.deps.Weather != nil {
		for _, c := range s.deps.Weather.Caches() {
			resp.Caches = append(resp.Caches, cacheStats{Name: c.Name(), Entries: c.Len()})
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeTaskState(w http.ResponseWriter, id string, code int) {
	state, ok := s.deps.Scheduler.TaskState(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found: "+id)
		return
	}
	s.writeJSON(w, code, state)
}
