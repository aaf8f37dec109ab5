package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/internal/logging"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/ports"
	"github.com/aretw0/sticky/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a sticky router over HTTP for inspection and manual driving.
type Server struct {
	Router ports.Router

	sessions      *session.Manager
	sessionRouter ports.Router
	gatherer      prometheus.Gatherer
	logger        *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry served on /metrics. Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithSessions enables the session endpoints. Every session is replayed on router,
// which must not be the one served on the other endpoints.
func WithSessions(m *session.Manager, router ports.Router) Option {
	return func(s *Server) {
		s.sessions = m
		s.sessionRouter = router
	}
}

// TransitionRequest is the body of POST /plan and POST /transition.
type TransitionRequest struct {
	To     string        `json:"to"`
	Params domain.Params `json:"params,omitempty"`
}

// StateResponse describes a registered state.
type StateResponse struct {
	Name        string   `json:"name"`
	Parent      string   `json:"parent,omitempty"`
	Sticky      bool     `json:"sticky"`
	OwnParams   []string `json:"own_params"`
	Description string   `json:"description,omitempty"`
}

// InstanceResponse describes a parked instance. Locals are never exposed.
type InstanceResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Params    domain.Params `json:"params"`
	EnteredAt time.Time     `json:"entered_at"`
}

// CurrentResponse describes the active state.
type CurrentResponse struct {
	Name   string        `json:"name"`
	Params domain.Params `json:"params"`
}

// PlanResponse is a transition plan with the inactive set flattened to names.
type PlanResponse struct {
	From      string                  `json:"from"`
	To        string                  `json:"to"`
	Keep      int                     `json:"keep"`
	Enter     []domain.EnterAction    `json:"enter"`
	Exit      []domain.ExitAction     `json:"exit"`
	Inactive  []string                `json:"inactive"`
	Sticky    domain.StickyTransition `json:"sticky"`
	Summary   string                  `json:"summary"`
	HookError string                  `json:"hook_error,omitempty"`
}

// NewHandler creates a new HTTP handler for the router.
func NewHandler(router ports.Router, opts ...Option) (http.Handler, error) {
	s := &Server{
		Router:   router,
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	validate, err := requestValidator(doc, s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Use(validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/health", s.GetHealth)
	r.Get("/states", s.ListStates)
	r.Get("/current", s.GetCurrent)
	r.Get("/inactive", s.ListInactive)
	r.Get("/inactive/owners", s.ListInactiveByOwner)
	r.Post("/plan", s.PlanTransition)
	r.Post("/transition", s.Transition)

	if s.sessions != nil {
		r.Get("/sessions", s.ListSessions)
		r.Post("/sessions/{sessionId}/transition", s.TransitionSession)
	}
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": strings.TrimSpace(sticky.Version),
	})
}

// ListStates handles the GET /states request.
func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	nodes := s.Router.States()
	resp := make([]StateResponse, 0, len(nodes))
	for _, n := range nodes {
		resp = append(resp, StateResponse{
			Name:        n.Name,
			Parent:      n.Parent,
			Sticky:      n.Sticky,
			OwnParams:   n.OwnParams,
			Description: n.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCurrent handles the GET /current request.
func (s *Server) GetCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentResponse{
		Name:   s.Router.Current(),
		Params: s.Router.Params().Clone(),
	})
}

// ListInactive handles the GET /inactive request.
// An owner query parameter restricts the listing to one owner bucket.
func (s *Server) ListInactive(w http.ResponseWriter, r *http.Request) {
	var owner *string
	if err := runtime.BindQueryParameter("form", true, false, "owner", r.URL.Query(), &owner); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	insts := s.Router.Inactive()
	if owner != nil {
		insts = s.Router.InactiveByOwner()[*owner]
	}
	resp := make([]InstanceResponse, 0, len(insts))
	for _, inst := range insts {
		resp = append(resp, InstanceResponse{
			ID:        inst.ID,
			Name:      inst.Name(),
			Params:    inst.Params.Clone(),
			EnteredAt: inst.EnteredAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListInactiveByOwner handles the GET /inactive/owners request.
func (s *Server) ListInactiveByOwner(w http.ResponseWriter, r *http.Request) {
	resp := make(map[string][]string)
	for owner, insts := range s.Router.InactiveByOwner() {
		names := make([]string, 0, len(insts))
		for _, inst := range insts {
			names = append(names, inst.Name())
		}
		resp[owner] = names
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlanTransition handles the POST /plan request. The router is left untouched.
func (s *Server) PlanTransition(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeTransition(w, r)
	if !ok {
		return
	}
	from := s.Router.Current()
	plan, err := s.Router.Plan(body.To, body.Params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(from, body.To, plan, nil))
}

// Transition handles the POST /transition request.
func (s *Server) Transition(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeTransition(w, r)
	if !ok {
		return
	}
	from := s.Router.Current()
	plan, err := s.Router.TransitionTo(r.Context(), body.To, body.Params)
	s.respondTransition(w, from, body.To, plan, err)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// TransitionSession handles the POST /sessions/{sessionId}/transition request.
func (s *Server) TransitionSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	body, ok := s.decodeTransition(w, r)
	if !ok {
		return
	}

	var from string
	if snap, err := s.sessions.Load(r.Context(), sessionID); err == nil {
		from = snap.Current
	}
	plan, err := s.sessions.Transition(r.Context(), sessionID, s.sessionRouter, body.To, body.Params)
	s.respondTransition(w, from, body.To, plan, err)
}

func (s *Server) respondTransition(w http.ResponseWriter, from, to string, plan *domain.TransitionPlan, err error) {
	if plan == nil {
		s.logger.Warn("transition aborted", "from", from, "to", to, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	if err != nil {
		s.logger.Warn("transition hooks failed", "from", from, "to", to, "error", err)
	}
	writeJSON(w, http.StatusOK, newPlanResponse(from, to, plan, err))
}

func (s *Server) decodeTransition(w http.ResponseWriter, r *http.Request) (TransitionRequest, bool) {
	var body TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err)
		return body, false
	}
	return body, true
}

// statusFor maps an aborted transition to a status code. Unknown states are 404;
// anything else (resolver failures, unreadable sessions) is 422.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrStateNotFound) {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

func newPlanResponse(from, to string, plan *domain.TransitionPlan, hookErr error) PlanResponse {
	resp := PlanResponse{
		From:     from,
		To:       to,
		Keep:     plan.Keep,
		Enter:    plan.Enter,
		Exit:     plan.Exit,
		Inactive: plan.InactiveNames(),
		Sticky:   plan.Sticky,
		Summary:  plan.String(),
	}
	if hookErr != nil {
		resp.HookError = hookErr.Error()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
