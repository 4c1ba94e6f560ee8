package mcpsrv

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pairdiff/internal/config"
	"github.com/usestring/pairdiff/internal/engine"
	"github.com/usestring/pairdiff/internal/logging"
	"github.com/usestring/pairdiff/internal/mcp"
	"github.com/usestring/pairdiff/internal/mcp/tools"
)

// Server is the pairdiff MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	engine     *engine.Engine
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin pairdiff tools.
//
// Configuration is read from environment variables unless WithConfig is
// given. The response cache is loaded from MCP_CACHE_FILE (or the file set
// with WithCacheFile); a corrupt cache file is an error.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg.config = loaded
	}

	logCfg := cfg.config.Logging()
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	cacheFile := cfg.config.MCPCacheFile
	if cfg.cacheFile != "" {
		cacheFile = cfg.cacheFile
	}
	engineCfg := cfg.config.Engine(cacheFile)
	engineCfg.AlwaysCache = true

	var engineOpts []engine.Option
	if cfg.httpClient != nil {
		engineOpts = append(engineOpts, engine.WithHTTPClient(cfg.httpClient))
	}
	if cfg.metrics != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(cfg.metrics))
	}
	eng, err := engine.New(engineCfg, nil, engineOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	toolDeps := &tools.Deps{
		Engine: eng,
		Config: cfg.config,
	}
	deps := &Deps{
		Engine: eng,
		Config: cfg.config,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		_ = eng.Close()
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		engine:     eng,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close persists the response cache and releases logging resources.
func (s *Server) Close() error {
	err := s.engine.Close()
	if s.logCleanup != nil {
		err = errors.Join(err, s.logCleanup())
	}
	return err
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
