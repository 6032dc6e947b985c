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

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/algorithms"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionResult aligns with the HTTP session representation.
type SessionResult struct {
	ID        string      `json:"id" jsonschema_description:"Session identifier"`
	Algorithm string      `json:"algorithm" jsonschema_description:"Algorithm being played"`
	View      domain.View `json:"view" jsonschema_description:"Current step and playback position"`
}

// ShareResult holds a share link for a session.
type ShareResult struct {
	Fragment string `json:"fragment" jsonschema_description:"URL fragment without the leading #"`
	Link     string `json:"link" jsonschema_description:"Absolute share link"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type createArgs struct {
	Algorithm string `json:"algorithm"`
	Params    string `json:"params"`
	Fragment  string `json:"fragment"`
	Speed     *int   `json:"speed"`
}

type controlArgs struct {
	SessionID string `json:"session_id"`
	Operation string `json:"operation"`
}

type seekArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

type speedArgs struct {
	SessionID string `json:"session_id"`
	Speed     int    `json:"speed"`
}

type reinitArgs struct {
	SessionID string `json:"session_id"`
	Algorithm string `json:"algorithm"`
	Params    string `json:"params"`
}

// Server exposes playback sessions as MCP tools.
type Server struct {
	sessions  *session.Manager
	codec     *share.Codec[share.VisualizerState]
	baseURL   string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. It must not write to Stdout when serving over stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithShareBase sets the page share links point to.
func WithShareBase(baseURL string) Option {
	return func(s *Server) {
		s.baseURL = baseURL
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		codec:     share.NewVisualizerCodec(),
		baseURL:   "http://localhost/",
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("stepper-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_algorithms",
		mcp.WithDescription("List the algorithms a session can play, with their default parameters."),
	), s.handleListAlgorithms)

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Generate a trace for an algorithm and open a playback session over it."),
		mcp.WithString("algorithm", mcp.Description("Algorithm name, see list_algorithms (optional if fragment names one)")),
		mcp.WithString("params", mcp.Description("JSON object of generation parameters, e.g. {\"array\": [5,2,9], \"target\": 9}")),
		mcp.WithString("fragment", mcp.Description("Share fragment to restore, e.g. a=5,2,9&alg=bubble-sort&s=3")),
		mcp.WithNumber("speed", mcp.Description("Initial speed, 0 to 100")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Return the current step and playback position of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("control",
		mcp.WithDescription("Drive playback: play, pause, toggle, step, back or reset."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("operation", mcp.Required(),
			mcp.Enum("play", "pause", "toggle", "step", "back", "reset"),
			mcp.Description("Playback operation"),
		),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleControl))

	s.mcpServer.AddTool(mcp.NewTool("seek",
		mcp.WithDescription("Jump to a step index. Out of range indices are clamped."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Step index")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleSeek))

	s.mcpServer.AddTool(mcp.NewTool("set_speed",
		mcp.WithDescription("Set the playback speed, 0 (slowest) to 100 (fastest)."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("speed", mcp.Required(), mcp.Description("Speed dial value")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleSpeed))

	s.mcpServer.AddTool(mcp.NewTool("reinitialize",
		mcp.WithDescription("Regenerate the trace of a session, optionally with another algorithm."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("algorithm", mcp.Description("Algorithm to switch to (optional)")),
		mcp.WithString("params", mcp.Description("JSON object of generation parameters")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleReinitialize))

	s.mcpServer.AddTool(mcp.NewTool("share_link",
		mcp.WithDescription("Build a link that restores the session's input, step and speed."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[ShareResult](),
	), mcp.NewStructuredToolHandler(s.handleShare))

	s.mcpServer.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Stop playback and discard a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), s.handleClose)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("stepper://algorithms", "Available algorithms",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.sessions.Registry().List())
		if err != nil {
			return nil, fmt.Errorf("failed to list algorithms: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "stepper://algorithms",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) handleListAlgorithms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(s.sessions.Registry().List())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args createArgs) (SessionResult, error) {
	params, err := parseParams(args.Params)
	if err != nil {
		return SessionResult{}, err
	}

	var restored *share.VisualizerState
	if args.Fragment != "" {
		if restored = s.codec.Decode(args.Fragment); restored != nil {
			fromLink := algorithms.ParamsFromShare(*restored)
			for k, v := range params {
				fromLink[k] = v
			}
			params = fromLink
			if args.Algorithm == "" {
				args.Algorithm = restored.Algorithm
			}
		}
	}
	if args.Algorithm == "" {
		return SessionResult{}, errors.New("algorithm is required")
	}

	sess, err := s.sessions.Create(ctx, args.Algorithm, params)
	if err != nil {
		return SessionResult{}, err
	}
	if restored != nil {
		share.Apply(*restored, sess.Controller)
	}
	if args.Speed != nil {
		sess.Controller.SetSpeed(*args.Speed)
	}
	s.logger.Info("MCP: session created", "session_id", sess.ID, "algorithm", sess.Algorithm())
	return toResult(sess), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (SessionResult, error) {
	sess, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return SessionResult{}, err
	}
	return toResult(sess), nil
}

func (s *Server) handleControl(ctx context.Context, request mcp.CallToolRequest, args controlArgs) (SessionResult, error) {
	sess, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return SessionResult{}, err
	}
	ctrl := sess.Controller
	switch args.Operation {
	case "play":
		ctrl.Play()
	case "pause":
		ctrl.Pause()
	case "toggle":
		ctrl.Toggle()
	case "step":
		ctrl.Step()
	case "back":
		ctrl.StepBack()
	case "reset":
		if err := ctrl.Reset(); err != nil {
			return SessionResult{}, fmt.Errorf("reset: %w", err)
		}
	default:
		return SessionResult{}, fmt.Errorf("unknown operation %q", args.Operation)
	}
	return toResult(sess), nil
}

func (s *Server) handleSeek(ctx context.Context, request mcp.CallToolRequest, args seekArgs) (SessionResult, error) {
	sess, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return SessionResult{}, err
	}
	sess.Controller.Seek(args.Index)
	return toResult(sess), nil
}

func (s *Server) handleSpeed(ctx context.Context, request mcp.CallToolRequest, args speedArgs) (SessionResult, error) {
	sess, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return SessionResult{}, err
	}
	sess.Controller.SetSpeed(args.Speed)
	return toResult(sess), nil
}

func (s *Server) handleReinitialize(ctx context.Context, request mcp.CallToolRequest, args reinitArgs) (SessionResult, error) {
	params, err := parseParams(args.Params)
	if err != nil {
		return SessionResult{}, err
	}
	if err := s.sessions.Reinitialize(ctx, args.SessionID, args.Algorithm, params); err != nil {
		return SessionResult{}, err
	}
	return s.handleGet(ctx, request, sessionArgs{SessionID: args.SessionID})
}

func (s *Server) handleShare(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (ShareResult, error) {
	sess, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return ShareResult{}, err
	}
	loc, err := share.NewLocation(s.baseURL)
	if err != nil {
		return ShareResult{}, err
	}
	state := algorithms.ShareState(sess.Algorithm(), sess.Controller.Params(), sess.Controller.State())
	link := s.codec.Write(loc, state)
	return ShareResult{Fragment: loc.Fragment(), Link: link}, nil
}

func (s *Server) handleClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Close(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("closed " + id), nil
}

func parseParams(raw string) (domain.Params, error) {
	if raw == "" {
		return domain.Params{}, nil
	}
	var params domain.Params
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("%w: params must be a JSON object: %v", domain.ErrInvalidParams, err)
	}
	if params == nil {
		params = domain.Params{}
	}
	return params, nil
}

func toResult(sess *session.Session) SessionResult {
	return SessionResult{
		ID:        sess.ID,
		Algorithm: sess.Algorithm(),
		View:      sess.Controller.View(),
	}
}
