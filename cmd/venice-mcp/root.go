package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/venice-mcp/internal/common"
	"github.com/bobmcallan/venice-mcp/internal/config"
	"github.com/bobmcallan/venice-mcp/internal/mcp"
	"github.com/bobmcallan/venice-mcp/internal/media"
	"github.com/bobmcallan/venice-mcp/internal/venice"
)

// serveFlags holds the flags of the root command.
type serveFlags struct {
	configFiles []string
	stdio       bool
	port        int
	host        string
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "venice-mcp",
		Short: "MCP server exposing the Venice AI API as tools",
		Long: "venice-mcp serves Venice AI chat, image, speech, embedding, discovery and API key " +
			"management endpoints as MCP tools over stdio or streamable HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags, cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringArrayVarP(&flags.configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times)")
	cmd.Flags().BoolVar(&flags.stdio, "stdio", true, "Serve over stdin/stdout; set --stdio=false for streamable HTTP")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "HTTP port (overrides config)")
	cmd.Flags().StringVar(&flags.host, "host", "", "HTTP host (overrides config)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newToolsCmd())
	return cmd
}

// loadConfig resolves configuration files, flags and environment.
func loadConfig(flags *serveFlags) (*config.Config, error) {
	files := flags.configFiles
	if len(files) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				files = append(files, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(files...)
	if err != nil {
		return nil, err
	}
	config.ApplyFlagOverrides(cfg, flags.port, flags.host)
	return cfg, nil
}

func runServe(ctx context.Context, flags *serveFlags, stderr io.Writer) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(stderr, "Set VENICE_API_KEY in the environment, a .env file, or [venice] api_key in a config file.")
		}
		return err
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	imageDir, err := cfg.ImageOutputDir()
	if err != nil {
		return err
	}

	client := venice.NewClient(cfg.Venice, logger)
	srv, err := mcp.NewServer(cfg, client, media.NewMaterializer(imageDir), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	if flags.stdio {
		return srv.ServeStdio()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	if err := srv.ListenHTTP(ctx, addr); err != nil {
		return fmt.Errorf("http server error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried first, then the working directory.
func configSearchPaths() []string {
	candidates := []string{
		"venice-mcp.toml",
		filepath.Join("config", "venice-mcp.toml"),
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "venice-mcp.toml"),
		filepath.Join(binDir, "config", "venice-mcp.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
