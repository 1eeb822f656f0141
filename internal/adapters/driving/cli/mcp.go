package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quizhunter/internal/adapters/driving/mcp"
	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/services"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

var mcpCorpus corpusFlags

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes the "search" and "similar" tools and the quiz://items
resources. It serves the saved index, or builds one from --corpus.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Use --watch with --corpus to rebuild whenever the corpus changes. The new
engine replaces the old one atomically; a failed rebuild keeps the old one.

Examples:
  # Stdio mode (default)
  quizhunter mcp serve

  # HTTP mode, rebuilding on change
  quizhunter mcp serve --port 8080 --corpus questions/ --watch`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("watch", false, "rebuild when the --corpus path changes")
	mcpCorpus.register(mcpServeCmd, "build from this corpus instead of the saved index")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	src, err := mcpCorpus.source()
	if err != nil {
		return err
	}
	if watch && src == nil {
		return errors.New("--watch requires --corpus")
	}

	ctx := commandContext(cmd)
	sess, err := openSession(ctx, src)
	if err != nil {
		return err
	}
	defer sess.Close()

	retrieval := services.NewSwappableRetrieval(sess.engine)
	ports := &mcp.Ports{
		Retrieval: retrieval,
		Defaults: domain.SearchOptions{
			TopK:  sess.settings.Search.TopK,
			Alpha: sess.settings.Search.Alpha,
		},
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if watch {
		r := &reloader{settings: sess.settings, embedder: sess.embedder, source: *src, target: retrieval}
		go func() {
			if err := watchCorpus(ctx, src.Path, r.reload); err != nil {
				logger.Error("Corpus watcher stopped: %v", err)
			}
		}()
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
