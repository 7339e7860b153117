package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/venice-mcp/internal/common"
	"github.com/bobmcallan/venice-mcp/internal/config"
	"github.com/bobmcallan/venice-mcp/internal/media"
	"github.com/bobmcallan/venice-mcp/internal/venice"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// shutdownTimeout bounds graceful shutdown of the HTTP transport.
const shutdownTimeout = 10 * time.Second

// Server owns the MCP tool registry and the transports that expose it.
// The registry is built once in NewServer and never changes afterwards.
type Server struct {
	mcp     *mcpserver.MCPServer
	catalog []Contract
	logger  *common.Logger
}

// NewServer registers every contract in Catalog plus venice_get_version.
// It fails if a contract is malformed or its input schema does not compile.
func NewServer(cfg *config.Config, client *venice.Client, materializer *media.Materializer, logger *common.Logger) (*Server, error) {
	mcpSrv := mcpserver.NewMCPServer(
		cfg.Server.Name,
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	d := deps{client: client, media: materializer, logger: logger}
	catalog := Catalog()
	count, err := RegisterContracts(mcpSrv, d, catalog)
	if err != nil {
		return nil, err
	}
	mcpSrv.AddTool(VersionTool(), VersionToolHandler(cfg.Server.Name, client.BaseURL()))

	logger.Info().
		Int("tools", count+1).
		Str("base_url", client.BaseURL()).
		Str("image_dir", materializer.Dir()).
		Msg("MCP server initialized")

	return &Server{mcp: mcpSrv, catalog: catalog, logger: logger}, nil
}

// RegisterContracts validates each contract, compiles its argument schema and
// adds it to s. It returns the number of tools registered.
func RegisterContracts(s *mcpserver.MCPServer, d deps, catalog []Contract) (int, error) {
	seen := make(map[string]bool, len(catalog))
	for _, ct := range catalog {
		if err := ValidateContract(ct); err != nil {
			return 0, err
		}
		if seen[ct.Name] {
			return 0, fmt.Errorf("duplicate tool %q", ct.Name)
		}
		seen[ct.Name] = true

		tool := BuildMCPTool(ct)
		v, err := newArgValidator(tool)
		if err != nil {
			return 0, err
		}
		s.AddTool(tool, ContractHandler(d, ct, v))
	}
	return len(catalog), nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// Catalog returns a copy of the registered contracts.
func (s *Server) Catalog() []Contract {
	result := make([]Contract, len(s.catalog))
	copy(result, s.catalog)
	return result
}

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("serving MCP over stdio")
	return mcpserver.ServeStdio(s.mcp)
}

// ListenHTTP serves MCP over streamable HTTP on addr until ctx is cancelled
// or the listener fails.
func (s *Server) ListenHTTP(ctx context.Context, addr string) error {
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp, mcpserver.WithStateLess(true))
	s.logger.Info().Str("addr", addr).Msg("serving MCP over streamable HTTP")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("shutting down MCP HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	}
}
