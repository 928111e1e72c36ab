package mcp

import (
	"context"

	"growthcheck/internal/analysis"
	"growthcheck/internal/config"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server exposes the analysis service as MCP tools.
type Server struct {
	svc     *analysis.Service
	cfg     *config.AppConfig
	version string
}

// NewServer creates a new MCP server.
func NewServer(svc *analysis.Service, cfg *config.AppConfig, version string) *Server {
	return &Server{svc: svc, cfg: cfg, version: version}
}

// Build returns the protocol server with every tool registered.
func (s *Server) Build() *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: "growthcheck", Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the server over stdio until the client disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	return s.Build().Run(ctx, &sdk.StdioTransport{})
}
