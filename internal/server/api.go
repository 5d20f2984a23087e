package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jpalmerr/tileboard/internal/health"
	"github.com/jpalmerr/tileboard/internal/widget"
)

type httpCheckRequest struct {
	URL                 string            `json:"url"`
	Method              string            `json:"method,omitempty"`
	Headers             map[string]string `json:"headers,omitempty"`
	Body                string            `json:"body,omitempty"`
	Timeout             string            `json:"timeout,omitempty"`
	AcceptedStatusCodes []int             `json:"accepted_status_codes,omitempty"`
}

type tcpCheckRequest struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Timeout string `json:"timeout,omitempty"`
}

type widgetRequest struct {
	ID             string            `json:"id"`
	Name           string            `json:"name,omitempty"`
	Type           string            `json:"type"`
	Interval       string            `json:"interval,omitempty"`
	RunImmediately bool              `json:"run_immediately,omitempty"`
	HTTP           *httpCheckRequest `json:"http,omitempty"`
	TCP            *tcpCheckRequest  `json:"tcp,omitempty"`
	RSS            *widget.Feed      `json:"rss,omitempty"`
	Weather        *widget.Weather   `json:"weather,omitempty"`
}

type checkRequest struct {
	// Type is "http" or "tcp"; inferred from the populated field when empty.
	Type string `json:"type,omitempty"`

	// Target, when set, records the result in that target's history.
	Target string `json:"target,omitempty"`

	HTTP *httpCheckRequest `json:"http,omitempty"`
	TCP  *tcpCheckRequest  `json:"tcp,omitempty"`
}

type widgetResponse struct {
	TaskID string `json:"task_id"`
	State  any    `json:"state"`
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}

func (req *httpCheckRequest) check() (health.HTTPCheck, error) {
	timeout, err := parseDuration("timeout", req.Timeout)
	if err != nil {
		return health.HTTPCheck{}, err
	}
	return health.HTTPCheck{
		URL:                 req.URL,
		Method:              req.Method,
		Headers:             req.Headers,
		Body:                req.Body,
		Timeout:             timeout,
		AcceptedStatusCodes: req.AcceptedStatusCodes,
	}, nil
}

func (req *tcpCheckRequest) check() (health.TCPCheck, error) {
	timeout, err := parseDuration("timeout", req.Timeout)
	if err != nil {
		return health.TCPCheck{}, err
	}
	return health.TCPCheck{Host: req.Host, Port: req.Port, Timeout: timeout}, nil
}

func (req widgetRequest) spec() (widget.Spec, error) {
	interval, err := parseDuration("interval", req.Interval)
	if err != nil {
		return widget.Spec{}, err
	}
	spec := widget.Spec{
		ID:             req.ID,
		Name:           req.Name,
		Type:           widget.Type(req.Type),
		Interval:       interval,
		RunImmediately: req.RunImmediately,
		Feed:           req.RSS,
		Weather:        req.Weather,
	}
	if req.HTTP != nil {
		c, err := req.HTTP.check()
		if err != nil {
			return widget.Spec{}, err
		}
		spec.HTTP = &c
	}
	if req.TCP != nil {
		c, err := req.TCP.check()
		if err != nil {
			return widget.Spec{}, err
		}
		spec.TCP = &c
	}
	return spec, spec.Validate()
}

func (req checkRequest) check() (health.Check, error) {
	typ := req.Type
	if typ == "" {
		switch {
		case req.HTTP != nil:
			typ = "http"
		case req.TCP != nil:
			typ = "tcp"
		}
	}

	var (
		check health.Check
		err   error
	)
	switch typ {
	case "http":
		if req.HTTP == nil {
			return nil, errors.New("http check requires an http object")
		}
		check, err = req.HTTP.check()
	case "tcp":
		if req.TCP == nil {
			return nil, errors.New("tcp check requires a tcp object")
		}
		check, err = req.TCP.check()
	default:
		return nil, fmt.Errorf("check type must be http or tcp, got %q", typ)
	}
	if err != nil {
		return nil, err
	}
	return check, check.Validate()
}

// handleListWidgets returns the latest update of every widget.
func (s *Server) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Store.GetAll())
}

// handleCreateWidget registers a widget and schedules its task. The first
// poll happens after one interval unless run_immediately is set.
func (s *Server) handleCreateWidget(w http.ResponseWriter, r *http.Request) {
	var req widgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	spec, err := req.spec()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.deps.Widgets.Start(spec)
	if err != nil {
		s.logger.Error("failed to start widget", "widget_id", spec.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := widgetResponse{TaskID: id}
	if state, ok := s.deps.Scheduler.TaskState(id); ok {
		resp.State = state
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

// handleCheck runs a single probe within the request.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	check, err := req.check()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.deps.Checker.Perform(r.Context(), check)
	if req.Target != "" {
		s.writeJSON(w, http.StatusOK, s.deps.History.Add(req.Target, result))
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistoryTargets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.History.Targets())
}

// handleGetHistory returns a target's entries, newest first. Unknown
// targets yield an empty list.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.deps.History.Get(chi.URLParam(r, "target"))
	if entries == nil {
		entries = []health.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.deps.History.Clear(chi.URLParam(r, "target"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.History.Stats(chi.URLParam(r, "target")))
}
