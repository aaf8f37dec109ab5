package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/internal/logging"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TreeURI is the resource exposing the state tree.
const TreeURI = "sticky://tree"

// Instance is a parked state as reported to MCP clients.
type Instance struct {
	ID     string        `json:"id" jsonschema_description:"Identifier of this occurrence of the state"`
	Name   string        `json:"name" jsonschema_description:"Dot-delimited state name"`
	Params domain.Params `json:"params" jsonschema_description:"Params the state was entered with"`
}

// InactiveResponse lists parked states.
type InactiveResponse struct {
	Inactive []Instance `json:"inactive" jsonschema_description:"Parked states sorted by name"`
}

// OwnersResponse buckets parked state names by owner.
type OwnersResponse struct {
	Owners map[string][]string `json:"owners" jsonschema_description:"Parked state names keyed by owner state; the root owner is the empty string"`
}

// PlanResponse aligns with the HTTP adapter's plan schema.
type PlanResponse struct {
	From      string               `json:"from" jsonschema_description:"State the router was in"`
	To        string               `json:"to" jsonschema_description:"Target state"`
	Keep      int                  `json:"keep" jsonschema_description:"Number of path nodes retained"`
	Enter     []domain.EnterAction `json:"enter" jsonschema_description:"One of enter, reactivate, updateParams per entered node"`
	Exit      []domain.ExitAction  `json:"exit" jsonschema_description:"One of exit, inactivate per exited node"`
	Inactive  []string             `json:"inactive" jsonschema_description:"States parked once the transition completes"`
	Summary   string               `json:"summary"`
	HookError string               `json:"hook_error,omitempty" jsonschema_description:"Lifecycle hook failures; the transition still happened"`
}

// TransitionArgs are the arguments of plan_transition and transition.
type TransitionArgs struct {
	To     string         `json:"to"`
	Params map[string]any `json:"params,omitempty"`
}

// Server exposes a sticky router as an MCP server.
type Server struct {
	router    ports.Router
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(router ports.Router, opts ...Option) *Server {
	s := &Server{
		router:    router,
		mcpServer: server.NewMCPServer("sticky-mcp", strings.TrimSpace(sticky.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP server over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_inactive",
		mcp.WithDescription("List the parked (inactive) sticky states, optionally only those owned by one state."),
		mcp.WithString("owner", mcp.Description("Owner state name; use an empty string for the root (optional)")),
		mcp.WithOutputSchema[InactiveResponse](),
	), mcp.NewStructuredToolHandler(s.handleListInactive))

	s.mcpServer.AddTool(mcp.NewTool("list_inactive_by_owner",
		mcp.WithDescription("List parked state names bucketed by the state that owns them."),
		mcp.WithOutputSchema[OwnersResponse](),
	), mcp.NewStructuredToolHandler(s.handleListByOwner))

	s.mcpServer.AddTool(mcp.NewTool("plan_transition",
		mcp.WithDescription("Compute which states would be entered, reactivated, parked or exited by a transition, without applying it."),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target state name")),
		mcp.WithObject("params", mcp.Description("Params of the target state")),
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handlePlan))

	s.mcpServer.AddTool(mcp.NewTool("transition",
		mcp.WithDescription("Move the router to a state and report the applied plan."),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target state name")),
		mcp.WithObject("params", mcp.Description("Params of the target state")),
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handleTransition))
}

func (s *Server) handleListInactive(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (InactiveResponse, error) {
	insts := s.router.Inactive()
	if owner, ok := args["owner"].(string); ok {
		insts = s.router.InactiveByOwner()[owner]
	}
	resp := InactiveResponse{Inactive: make([]Instance, 0, len(insts))}
	for _, inst := range insts {
		resp.Inactive = append(resp.Inactive, Instance{
			ID:     inst.ID,
			Name:   inst.Name(),
			Params: inst.Params.Clone(),
		})
	}
	return resp, nil
}

func (s *Server) handleListByOwner(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (OwnersResponse, error) {
	resp := OwnersResponse{Owners: make(map[string][]string)}
	for owner, insts := range s.router.InactiveByOwner() {
		for _, inst := range insts {
			resp.Owners[owner] = append(resp.Owners[owner], inst.Name())
		}
	}
	return resp, nil
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args TransitionArgs) (PlanResponse, error) {
	from := s.router.Current()
	plan, err := s.router.Plan(args.To, args.Params)
	if err != nil {
		return PlanResponse{}, fmt.Errorf("plan failed: %w", err)
	}
	return newPlanResponse(from, args.To, plan, nil), nil
}

func (s *Server) handleTransition(ctx context.Context, request mcp.CallToolRequest, args TransitionArgs) (PlanResponse, error) {
	from := s.router.Current()
	plan, err := s.router.TransitionTo(ctx, args.To, args.Params)
	if plan == nil {
		s.logger.Warn("MCP transition aborted", "to", args.To, "error", err)
		return PlanResponse{}, fmt.Errorf("transition failed: %w", err)
	}
	if err != nil {
		s.logger.Warn("MCP transition hooks failed", "to", args.To, "error", err)
	}
	return newPlanResponse(from, args.To, plan, err), nil
}

func newPlanResponse(from, to string, plan *domain.TransitionPlan, hookErr error) PlanResponse {
	resp := PlanResponse{
		From:     from,
		To:       to,
		Keep:     plan.Keep,
		Enter:    plan.Enter,
		Exit:     plan.Exit,
		Inactive: plan.InactiveNames(),
		Summary:  plan.String(),
	}
	if hookErr != nil {
		resp.HookError = hookErr.Error()
	}
	return resp
}

// treeNode is the JSON form of a state in the tree resource.
type treeNode struct {
	Name        string   `json:"name"`
	Sticky      bool     `json:"sticky,omitempty"`
	OwnParams   []string `json:"own_params"`
	Description string   `json:"description,omitempty"`
	Active      bool     `json:"active,omitempty"`
	Parked      bool     `json:"parked,omitempty"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TreeURI, "Sticky State Tree",
		mcp.WithResourceDescription("Every registered state with its sticky flag and current activity"),
		mcp.WithMIMEType("application/json"),
	), s.handleTreeResource)
}

func (s *Server) handleTreeResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.treeNodes())
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TreeURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) treeNodes() []treeNode {
	parked := make(map[string]bool)
	for _, inst := range s.router.Inactive() {
		parked[inst.Name()] = true
	}
	current := s.router.Current()

	nodes := s.router.States()
	out := make([]treeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, treeNode{
			Name:        n.Name,
			Sticky:      n.Sticky,
			OwnParams:   n.OwnParams,
			Description: n.Description,
			Active:      n.Name == current || strings.HasPrefix(current, n.Prefix()),
			Parked:      parked[n.Name],
		})
	}
	return out
}
