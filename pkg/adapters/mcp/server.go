package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/terminal"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// WidgetsURI is the resource listing every mounted widget.
const WidgetsURI = "canopy://widgets"

// ViewID is the view events dispatched through MCP are attributed to.
const ViewID domain.ViewID = "mcp"

// ModelResponse is the result of get_model.
type ModelResponse struct {
	WidgetID string `json:"widget_id" jsonschema_description:"The widget ID"`
	Revision uint64 `json:"revision" jsonschema_description:"Number of updates applied to the model"`
	Model    any    `json:"model" jsonschema_description:"The rendered model"`
}

// DispatchResponse is the result of dispatch_event.
type DispatchResponse struct {
	WidgetID string `json:"widget_id" jsonschema_description:"The widget ID"`
	Target   string `json:"target" jsonschema_description:"The handler target the event was queued for"`
	Revision uint64 `json:"revision" jsonschema_description:"Model revision when the event was queued"`
}

// Server exposes the widgets of a host.Manager as an MCP Server.
type Server struct {
	manager   *host.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(m *host.Manager, opts ...Option) *Server {
	s := &Server{
		manager:   m,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "mcp")
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_widgets
	s.mcpServer.AddTool(mcp.NewTool("list_widgets",
		mcp.WithDescription("List the mounted widgets with their views and model revision."),
	), s.handleListWidgets)

	// TOOL: get_model
	getModel := mcp.NewTool("get_model",
		mcp.WithDescription("Get the current rendered model of a widget."),
		mcp.WithString("widget_id", mcp.Required(), mcp.Description("The widget ID")),
		mcp.WithOutputSchema[ModelResponse](),
	)
	s.mcpServer.AddTool(getModel, mcp.NewStructuredToolHandler(s.handleGetModel))

	// TOOL: get_markdown
	s.mcpServer.AddTool(mcp.NewTool("get_markdown",
		mcp.WithDescription("Get the current model of a widget rendered as markdown, with clickable targets in parentheses."),
		mcp.WithString("widget_id", mcp.Required(), mcp.Description("The widget ID")),
	), s.handleGetMarkdown)

	// TOOL: dispatch_event
	dispatch := mcp.NewTool("dispatch_event",
		mcp.WithDescription("Deliver a UI event to a widget handler, as if a view had clicked it."),
		mcp.WithString("widget_id", mcp.Required(), mcp.Description("The widget ID")),
		mcp.WithString("target", mcp.Required(), mcp.Description("The handler target, e.g. h0")),
		mcp.WithString("data", mcp.Description("JSON array of event arguments (optional). Typed handlers list their argument types under \"args\" in the model.")),
		mcp.WithOutputSchema[DispatchResponse](),
	)
	s.mcpServer.AddTool(dispatch, mcp.NewStructuredToolHandler(s.handleDispatchEvent))
}

func (s *Server) handleListWidgets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(s.widgetInfos())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetModel(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ModelResponse, error) {
	id, _ := args["widget_id"].(string)
	w, err := s.manager.Get(id)
	if err != nil {
		return ModelResponse{}, err
	}
	snap := w.Snapshot()
	return ModelResponse{WidgetID: id, Revision: snap.Revision, Model: snap.Model}, nil
}

func (s *Server) handleGetMarkdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("widget_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	w, err := s.manager.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(terminal.Markdown(w.Snapshot().Model)), nil
}

func (s *Server) handleDispatchEvent(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DispatchResponse, error) {
	id, _ := args["widget_id"].(string)
	target, _ := args["target"].(string)
	if target == "" {
		return DispatchResponse{}, errors.New("target is required")
	}

	data := []any{}
	if raw, ok := args["data"].(string); ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return DispatchResponse{}, fmt.Errorf("data must be a JSON array: %w", err)
		}
	}

	w, err := s.manager.Get(id)
	if err != nil {
		return DispatchResponse{}, err
	}
	if err := s.checkArgs(w, target, data); err != nil {
		return DispatchResponse{}, err
	}

	msg := map[string]any{
		"type":   domain.MessageDOMEvent,
		"viewId": string(ViewID),
		"data":   map[string]any{"target": target, "data": data},
	}
	if err := w.Handle(ctx, msg, nil); err != nil {
		s.logger.Warn("dispatch failed", "widget_id", id, "target", target, "err", err)
		return DispatchResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}
	return DispatchResponse{WidgetID: id, Target: target, Revision: w.Snapshot().Revision}, nil
}

// checkArgs validates data against the argument types the target handler publishes.
// Handlers without published types, or with custom ones, are left to check for themselves.
func (s *Server) checkArgs(w *canopy.Widget, target string, data []any) error {
	ref, ok := layout.FindHandler(w.Snapshot().Model, target)
	if !ok {
		return nil
	}
	published, ok := ref["args"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(published))
	for _, n := range published {
		if name, ok := n.(string); ok {
			names = append(names, name)
		}
	}

	args, err := schema.ParseArgs(names...)
	if err != nil {
		s.logger.Debug("handler arguments not checked", "target", target, "err", err)
		return nil
	}
	if err := schema.ValidateArgs(args, data); err != nil {
		return fmt.Errorf("data does not match %s%v: %w", target, names, err)
	}
	return nil
}

func (s *Server) registerResources() {
	// EXPOSE: canopy://widgets
	s.mcpServer.AddResource(mcp.NewResource(WidgetsURI, "Mounted Widgets",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.widgetInfos())
		if err != nil {
			return nil, fmt.Errorf("failed to encode widgets: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      WidgetsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) widgetInfos() []canopy.Info {
	widgets := s.manager.Widgets()
	infos := make([]canopy.Info, 0, len(widgets))
	for _, w := range widgets {
		infos = append(infos, w.Info())
	}
	return infos
}
