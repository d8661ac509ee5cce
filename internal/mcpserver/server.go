// Package mcpserver implements the Tool Server (C8): a JSON-RPC-over-stdio
// MCP server exposing search_scripts, list_scripts, and get_script.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/scriptindex/scriptindex/domain/record"
	"github.com/scriptindex/scriptindex/internal/config"
	"github.com/scriptindex/scriptindex/internal/embedding"
	"github.com/scriptindex/scriptindex/internal/errs"
	"github.com/scriptindex/scriptindex/internal/repository"
	"github.com/scriptindex/scriptindex/internal/search"
	"github.com/scriptindex/scriptindex/internal/storage"
)

const protocolVersion = "2024-11-05"

const instructions = "This server provides semantic search over a directory of scripts:\n\n" +
	"- search_scripts(query, category?, limit?, minSimilarity?) - Find scripts matching a natural language query\n" +
	"- list_scripts(category?, limit?) - List indexed scripts, optionally filtered by category\n" +
	"- get_script(name) - Fetch a single script by exact name or path substring\n\n" +
	"Call search_scripts first for most requests; it ranks by semantic similarity " +
	"rather than exact text match."

// Server wraps mark3labs/mcp-go's MCPServer with the script-search tool
// catalog. The backing storage/embedding/repository/search clients are
// constructed lazily on the first tools/call, per spec.md §4.8.
type Server struct {
	mcpServer *server.MCPServer
	cfg       config.AppConfig
	logger    *slog.Logger
	version   string

	client   *storage.Client
	embedder *embedding.Client
	repo     *repository.Store
	searcher *search.Searcher
}

// New constructs a Server. Backing clients are not initialized until the
// first tool call.
func New(cfg config.AppConfig, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, logger: logger, version: version}

	mcpServer := server.NewMCPServer(
		"scriptindex",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions(instructions),
	)

	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("search_scripts",
		mcp.WithDescription("Search indexed scripts by semantic similarity to a query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the script being sought"),
		),
		mcp.WithString("category",
			mcp.Description("Restrict results to this category (audio, system, dev, other)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 5)"),
		),
		mcp.WithNumber("minSimilarity",
			mcp.Description("Minimum cosine similarity in [-1, 1] (default 0; results below it are dropped)"),
		),
	), s.handleSearchScripts)

	mcpServer.AddTool(mcp.NewTool("list_scripts",
		mcp.WithDescription("List indexed scripts, optionally filtered by category"),
		mcp.WithString("category",
			mcp.Description("Restrict results to this category"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 50)"),
		),
	), s.handleListScripts)

	mcpServer.AddTool(mcp.NewTool("get_script",
		mcp.WithDescription("Fetch a single script by exact name, falling back to a substring match against its path"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The script's name (without extension) or a path substring"),
		),
	), s.handleGetScript)
}

// ensureClients lazily connects the Storage Client and constructs the
// Embedding Client, Repository, and Searcher on first use.
func (s *Server) ensureClients(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	client, err := storage.New(s.cfg.Turso().URL(), s.cfg.Turso().AuthToken())
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}

	embedder, err := embedding.New(s.cfg.OpenAIAPIKey(), s.cfg.EmbeddingModel(), s.cfg.EmbeddingDimensions())
	if err != nil {
		return err
	}

	repo := repository.New(client)

	s.client = client
	s.embedder = embedder
	s.repo = repo
	s.searcher = search.New(embedder, repo)
	return nil
}

type searchResultView struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Usage       string   `json:"usage,omitempty"`
	Tags        []string `json:"tags"`
	Similarity  string   `json:"similarity"`
}

func (s *Server) handleSearchScripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query is required: %v", err)), nil
	}
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}

	if err := s.ensureClients(ctx); err != nil {
		return nil, err
	}

	limit := int(request.GetFloat("limit", 5))
	category := request.GetString("category", "")
	minSim := request.GetFloat("minSimilarity", 0)

	results, err := s.searcher.Search(ctx, query, search.Params{
		TopN:          limit,
		Category:      category,
		MinSimilarity: &minSim,
	})
	if err != nil {
		return nil, err
	}

	views := make([]searchResultView, 0, len(results))
	for _, r := range results {
		views = append(views, searchResultView{
			Name:        r.Script.Name(),
			Path:        r.Script.Path(),
			Category:    r.Script.Category(),
			Description: r.Script.Description(),
			Usage:       r.Script.Usage(),
			Tags:        r.Script.Tags().Strings(),
			Similarity:  fmt.Sprintf("%.3f", r.Similarity),
		})
	}

	payload := map[string]any{
		"found":   len(views),
		"results": views,
	}
	return jsonResult(payload)
}

type scriptView struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Usage       string   `json:"usage,omitempty"`
	Tags        []string `json:"tags"`
}

func (s *Server) handleListScripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ensureClients(ctx); err != nil {
		return nil, err
	}

	limit := int(request.GetFloat("limit", 50))
	category := request.GetString("category", "")

	scripts, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Category: category})
	if err != nil {
		return nil, err
	}

	views := make([]scriptView, 0, len(scripts))
	for _, sc := range scripts {
		views = append(views, scriptView{
			Name:        sc.Name(),
			Path:        sc.Path(),
			Category:    sc.Category(),
			Description: sc.Description(),
			Usage:       sc.Usage(),
			Tags:        sc.Tags().Strings(),
		})
	}

	payload := map[string]any{
		"count":   len(views),
		"scripts": views,
	}
	return jsonResult(payload)
}

func (s *Server) handleGetScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("name is required: %v", err)), nil
	}

	if err := s.ensureClients(ctx); err != nil {
		return nil, err
	}

	script, err := s.findScriptByNameOrPath(ctx, name)
	if err != nil {
		if err == errs.ErrNotFound {
			return mcp.NewToolResultError(fmt.Sprintf("Script not found: %s", name)), nil
		}
		return nil, err
	}

	return jsonResult(scriptView{
		Name:        script.Name(),
		Path:        script.Path(),
		Category:    script.Category(),
		Description: script.Description(),
		Usage:       script.Usage(),
		Tags:        script.Tags().Strings(),
	})
}

// findScriptByNameOrPath matches by exact name first, then falls back to a
// substring match against path, per spec.md §4.8's get_script contract.
func (s *Server) findScriptByNameOrPath(ctx context.Context, name string) (record.Script, error) {
	scripts, err := s.repo.List(ctx, repository.ListOptions{Limit: search.MaxCandidates})
	if err != nil {
		return record.Script{}, err
	}

	for _, sc := range scripts {
		if sc.Name() == name {
			return sc, nil
		}
	}
	for _, sc := range scripts {
		if strings.Contains(sc.Path(), name) {
			return sc, nil
		}
	}
	return record.Script{}, errs.ErrNotFound
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio. On stdin EOF it disconnects the
// Storage Client.
func (s *Server) ServeStdio() error {
	err := server.ServeStdio(s.mcpServer)
	if s.client != nil {
		if closeErr := s.client.Disconnect(); closeErr != nil {
			s.logger.Error("failed to disconnect storage client", slog.Any("error", closeErr))
		}
	}
	return err
}

// ProtocolVersion returns the MCP protocol version string this server
// implements, per spec.md §4.8's initialize handshake.
func ProtocolVersion() string { return protocolVersion }
