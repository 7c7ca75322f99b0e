// Package mcp exposes essays to Model Context Protocol clients.
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

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// EssaysURI is the resource listing every essay.
const EssaysURI = "quill://essays"

// Repository is the document store the MCP tools read and write.
type Repository interface {
	CreateNewEssay(ctx context.Context, title string) (*domain.EssayData, error)
	GetAllEssays(ctx context.Context) ([]domain.Essay, error)
	GetEssayData(ctx context.Context, id string) (*domain.EssayData, error)
	Update(ctx context.Context, id string, fn func(*domain.EssayData) bool) (*domain.EssayData, error)
}

// Navigator moves documents between steps.
type Navigator interface {
	Advance(ctx context.Context, d *domain.EssayData) (domain.Step, error)
	Thresholds() workflow.Thresholds
}

// EssayArgs selects an essay by id.
type EssayArgs struct {
	ID string `json:"id"`
}

// CreateArgs are the arguments of create_essay.
type CreateArgs struct {
	Title string `json:"title"`
}

// OutlineArgs are the arguments of add_outline_sentence.
type OutlineArgs struct {
	ID       string `json:"id"`
	Sentence string `json:"sentence"`
}

// SuggestArgs are the arguments of suggest_rewrites.
type SuggestArgs struct {
	Sentence string `json:"sentence"`
}

// SuggestResult lists the rewrites returned by the gateway.
type SuggestResult struct {
	Suggestions []string `json:"suggestions" jsonschema_description:"Alternative phrasings of the sentence"`
}

// Server exposes the essay repository as an MCP server.
type Server struct {
	repo      Repository
	nav       Navigator
	gateway   ports.SuggestionGateway
	logger    *slog.Logger
	version   string
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithGateway registers the suggest_rewrites tool backed by g.
func WithGateway(g ports.SuggestionGateway) Option {
	return func(s *Server) {
		s.gateway = g
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(repo Repository, nav Navigator, opts ...Option) *Server {
	s := &Server{
		repo:    repo,
		nav:     nav,
		logger:  logging.NewNop(),
		version: "unknown",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("quill-mcp", s.version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// SSEHandler returns the SSE transport mounted on /sse and /message.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	return mux
}

// ServeSSE serves the SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.SSEHandler(fmt.Sprintf("http://localhost:%d", port)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down mcp server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_essays",
		mcp.WithDescription("List every essay, most recently updated first."),
	), s.handleListEssays)

	s.mcpServer.AddTool(mcp.NewTool("get_essay",
		mcp.WithDescription("Get the full document of an essay, including every visited step."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Essay ID")),
	), s.handleGetEssay)

	s.mcpServer.AddTool(mcp.NewTool("essay_status",
		mcp.WithDescription("Report the current step of an essay and whether it can advance."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Essay ID")),
		mcp.WithOutputSchema[workflow.Status](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("create_essay",
		mcp.WithDescription("Create an essay on the plan step."),
		mcp.WithString("title", mcp.Description("Essay title (optional)")),
		mcp.WithOutputSchema[workflow.Status](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("add_outline_sentence",
		mcp.WithDescription("Append a topic sentence to the outline of an essay."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Essay ID")),
		mcp.WithString("sentence", mcp.Required(), mcp.Description("Topic sentence")),
		mcp.WithOutputSchema[workflow.Status](),
	), mcp.NewStructuredToolHandler(s.handleAddOutline))

	s.mcpServer.AddTool(mcp.NewTool("advance_essay",
		mcp.WithDescription("Move an essay to the next step if its current step is complete."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Essay ID")),
		mcp.WithOutputSchema[workflow.Status](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	if s.gateway != nil {
		s.mcpServer.AddTool(mcp.NewTool("suggest_rewrites",
			mcp.WithDescription("Ask the suggestion service for rewrites of one sentence."),
			mcp.WithString("sentence", mcp.Required(), mcp.Description("Sentence to rewrite")),
			mcp.WithOutputSchema[SuggestResult](),
		), mcp.NewStructuredToolHandler(s.handleSuggest))
	}
}

func (s *Server) handleListEssays(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	essays, err := s.repo.GetAllEssays(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if essays == nil {
		essays = []domain.Essay{}
	}
	jsonBytes, _ := json.Marshal(essays)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetEssay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.load(ctx, request.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	jsonBytes, err := json.Marshal(d)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args EssayArgs) (workflow.Status, error) {
	d, err := s.load(ctx, args.ID)
	if err != nil {
		return workflow.Status{}, err
	}
	return s.nav.Thresholds().Report(d), nil
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args CreateArgs) (workflow.Status, error) {
	d, err := s.repo.CreateNewEssay(ctx, args.Title)
	if err != nil {
		return workflow.Status{}, fmt.Errorf("create failed: %w", err)
	}
	s.logger.Info("essay created via mcp", "essay_id", d.Essay.ID)
	return s.nav.Thresholds().Report(d), nil
}

func (s *Server) handleAddOutline(ctx context.Context, request mcp.CallToolRequest, args OutlineArgs) (workflow.Status, error) {
	if strings.TrimSpace(args.Sentence) == "" {
		return workflow.Status{}, errors.New("sentence is required")
	}
	if strings.TrimSpace(args.ID) == "" {
		return workflow.Status{}, errors.New("id is required")
	}
	d, err := s.repo.Update(ctx, args.ID, func(d *domain.EssayData) bool {
		return workflow.AddOutlineSentence(d, args.Sentence)
	})
	if err != nil {
		return workflow.Status{}, fmt.Errorf("save failed: %w", err)
	}
	return s.nav.Thresholds().Report(d), nil
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args EssayArgs) (workflow.Status, error) {
	d, err := s.load(ctx, args.ID)
	if err != nil {
		return workflow.Status{}, err
	}
	if _, err := s.nav.Advance(ctx, d); err != nil {
		s.logger.Debug("mcp advance rejected", "essay_id", args.ID, "err", err)
		return workflow.Status{}, fmt.Errorf("advance failed: %w", err)
	}
	return s.nav.Thresholds().Report(d), nil
}

func (s *Server) handleSuggest(ctx context.Context, request mcp.CallToolRequest, args SuggestArgs) (SuggestResult, error) {
	if strings.TrimSpace(args.Sentence) == "" {
		return SuggestResult{}, errors.New("sentence is required")
	}
	out, err := s.gateway.RequestRewrites(ctx, args.Sentence)
	if err != nil {
		var sugErr *domain.SuggestionError
		if errors.As(err, &sugErr) {
			return SuggestResult{}, errors.New(sugErr.Message)
		}
		return SuggestResult{}, fmt.Errorf("suggestion failed: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return SuggestResult{Suggestions: out}, nil
}

func (s *Server) load(ctx context.Context, id string) (*domain.EssayData, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("id is required")
	}
	d, err := s.repo.GetEssayData(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEssayNotFound, id)
	}
	return d, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(EssaysURI, "Essays",
		mcp.WithResourceDescription("Every essay, most recently updated first."),
		mcp.WithMIMEType("application/json"),
	), s.readEssays)
}

func (s *Server) readEssays(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	essays, err := s.repo.GetAllEssays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list essays: %w", err)
	}
	if essays == nil {
		essays = []domain.Essay{}
	}
	jsonBytes, _ := json.Marshal(essays)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      EssaysURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
