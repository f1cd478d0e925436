package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/identity"
	"github.com/januspriv/janus/internal/logging"
	janusmcp "github.com/januspriv/janus/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs janus as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes the screening pipeline as tools: detect, rewrite, audit,\n" +
		"compose_correction, and the identity operations.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	log := logging.Get(cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	classifier, err := buildClassifier(ctx, cfg)
	if err != nil {
		return err
	}

	identities, err := identity.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}

	srv := janusmcp.New(janusmcp.Config{
		Classifier: classifier,
		Identities: identities,
		Composer:   correction.NewComposer(classifier, identities),
		Log:        log,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "janus MCP server running on stdio")
	return srv.Run(ctx)
}
