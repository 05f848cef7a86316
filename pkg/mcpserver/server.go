// Package mcpserver exposes the window manager to automation agents as
// Model Context Protocol tools. Tool results are YAML documents.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"deskshell/pkg/wm"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"pkt.systems/pslog"
)

// Transports accepted by Serve.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config holds MCP server configuration.
type Config struct {
	Manager *wm.Manager
	Name    string
	Version string
	Logger  pslog.Logger
}

type tool struct {
	def     mcp.Tool
	handler server.ToolHandlerFunc
}

// Server wraps an MCP server whose tools drive a window manager.
type Server struct {
	wm    *wm.Manager
	mcp   *server.MCPServer
	log   pslog.Logger
	tools []tool
}

// New creates an MCP server with every compositor tool registered.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = pslog.Ctx(context.Background())
	}
	if cfg.Name == "" {
		cfg.Name = "deskshell"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{
		wm:  cfg.Manager,
		log: cfg.Logger.With("component", "mcp"),
	}
	s.mcp = server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.tools = s.toolset()
	for _, t := range s.tools {
		s.mcp.AddTool(t.def, s.logged(t.def.Name, t.handler))
	}
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve runs the server on the given transport until ctx is done.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.log.Info("mcp server starting", "transport", transport, "addr", addr, "tools", len(s.tools))
	switch transport {
	case TransportStdio, "":
		err := server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case TransportStreamableHTTP:
		httpServer := server.NewStreamableHTTPServer(s.mcp)
		go func() {
			<-ctx.Done()
			_ = httpServer.Shutdown(context.Background())
		}()
		err := httpServer.Start(addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unsupported transport: %s (use %s or %s)", transport, TransportStdio, TransportStreamableHTTP)
	}
}

func (s *Server) logged(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := h(ctx, request)
		if res != nil && res.IsError {
			s.log.Debug("mcp tool failed", "tool", name)
		} else {
			s.log.Trace("mcp tool called", "tool", name)
		}
		return res, err
	}
}
