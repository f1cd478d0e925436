package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/bus"
	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/history"
	"github.com/januspriv/janus/internal/identity"
	"github.com/januspriv/janus/internal/logging"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Bridge listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser bridge daemon",
	Long: "Runs the WebSocket bridge the browser extension connects to.\n" +
		"All screening, auditing, and correction composition happens here;\n" +
		"the extension only collects text and renders decisions.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.BridgeAddr = serveAddr
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

	hist, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return err
	}
	defer hist.Close()

	srv := bus.New(bus.Deps{
		Classifier: classifier,
		Identities: identities,
		Composer:   correction.NewComposer(classifier, identities),
		History:    hist,
		Log:        log,
	})

	watcher, err := identity.NewWatcher(identities, func() {
		log.Infof("identity records changed on disk")
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: identity watch disabled: %v\n", err)
	} else {
		go watcher.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down bridge...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "janus bridge listening on %s\n", cfg.BridgeAddr)
	return srv.ListenAndServe(ctx, cfg.BridgeAddr)
}
