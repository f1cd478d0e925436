package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/audit"
	"github.com/januspriv/janus/internal/auditor"
	"github.com/januspriv/janus/internal/augment"
	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/guard"
	"github.com/januspriv/janus/internal/history"
	"github.com/januspriv/janus/internal/hostpage"
	"github.com/januspriv/janus/internal/identity"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
	"github.com/januspriv/janus/internal/stability"
)

var (
	attachURL        string
	attachControlURL string
	attachSite       string
)

func init() {
	rootCmd.AddCommand(attachCmd)
	attachCmd.Flags().StringVar(&attachURL, "url", "", "Chat page URL to open (required)")
	attachCmd.Flags().StringVar(&attachControlURL, "control-url", "", "DevTools URL of a running browser (launches headless when empty)")
	attachCmd.Flags().StringVar(&attachSite, "site", "", "Site selector set (overrides config)")
	attachCmd.MarkFlagRequired("url")
}

var attachCmd = &cobra.Command{
	Use:   "attach --url <chat page>",
	Short: "Drive a chat page directly, without the extension",
	Long: "Attaches to a browser page over DevTools and runs the full pipeline\n" +
		"from the terminal: type a message, it is screened and released into\n" +
		"the page; assistant replies are audited as they complete.",
	RunE: runAttach,
}

func runAttach(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if attachSite != "" {
		cfg.Site = attachSite
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	log := logging.Get(cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ndetaching...")
		cancel()
	}()

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

	decisions, err := audit.Open(filepath.Join(cfg.DataDir, "decisions.jsonl"))
	if err != nil {
		return err
	}
	defer decisions.Close()

	sites, err := hostpage.LoadSites(cfg.SitesPath)
	if err != nil {
		return err
	}
	sel, err := sites.For(cfg.Site)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "attaching to %s...\n", attachURL)
	adapter, err := hostpage.Connect(ctx, attachControlURL, attachURL, sel)
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	stdin := newLineReader(os.Stdin)
	surface := newTermSurface(stdin, os.Stderr)
	surfaceLog := decisions.Surface(cfg.Site)
	augmentor := augment.New(classifier, cfg.AugmentTimeout(), log)
	composer := correction.NewComposer(classifier, identities)
	session := guard.NewSession(classifier, adapter, surface, augmentor, identities, surfaceLog, log)

	aud := auditor.New(auditor.Config{
		SurfaceID:  cfg.Site,
		Classifier: classifier,
		Adapter:    adapter,
		Identities: identities,
		Surface:    surface,
		Composer:   composer,
		Session:    session,
		Store:      hist,
		Recorder:   surfaceLog,
		Sampler:    stability.NewSampler(cfg.StabilityInterval(), cfg.Stability.Samples),
		Settle:     cfg.StabilitySettle(),
		Log:        log,
	})

	// Poll for transcript changes; the extension uses a MutationObserver,
	// the terminal makes do with a ticker.
	go func() {
		ticker := time.NewTicker(cfg.StabilityInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := aud.OnMutation(ctx); err != nil && ctx.Err() == nil {
					log.Warnf("audit: %v", err)
				}
			}
		}
	}()

	// Selection edits while attached trigger the switch correction flow.
	lastSelected, err := identities.Selected()
	if err != nil {
		return err
	}
	watcher, err := identity.NewWatcher(identities, func() {
		next, err := identities.Selected()
		if err != nil {
			log.Warnf("identity reload: %v", err)
			return
		}
		if sameIdentity(lastSelected, next) {
			return
		}
		prev := lastSelected
		lastSelected = next
		if _, err := aud.OnIdentitySwitch(ctx, prev, next); err != nil && ctx.Err() == nil {
			log.Warnf("identity switch: %v", err)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: identity watch disabled: %v\n", err)
	} else {
		go watcher.Run(ctx)
	}

	fmt.Fprintln(os.Stderr, "attached; type a message and press enter (ctrl-d to quit)")
	// Audit prompts read through the same lineReader, so an answer to a
	// pending disposition prompt is never consumed here as a message.
	for ctx.Err() == nil {
		text, err := stdin.ReadLine()
		if err != nil {
			return nil
		}
		if text == "" {
			continue
		}
		result, err := session.Intercept(ctx, guard.Request{Text: text})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if !result.Proceed {
			continue
		}
		if err := session.Release(result.Text); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

func sameIdentity(a, b *model.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
