package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/identity"
)

var (
	checkRewrite bool
	checkFormat  string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkRewrite, "rewrite", false, "Print a sanitized rewrite when items are flagged")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Screen text against the selected identity",
	Long: "Runs one detection pass over the given text (or stdin) and reports\n" +
		"what exceeds the selected identity's disclosure bounds.\n\n" +
		"Exit code 0 when clean, 1 when anything is flagged.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return fmt.Errorf("nothing to check")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	classifier, err := buildClassifier(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := identity.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	selected, err := store.Selected()
	if err != nil {
		return err
	}

	items, err := classifier.Detect(ctx, text, selected, nil)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	if checkFormat == "json" {
		out, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else if len(items) == 0 {
		fmt.Println("clean")
	} else {
		for _, item := range items {
			fmt.Printf("[%s] %q: %s\n", item.Severity, item.Text, item.Reason)
		}
	}

	if len(items) == 0 {
		return nil
	}
	if checkRewrite {
		rewritten, err := classifier.Rewrite(ctx, text, items, selected)
		if err != nil {
			return fmt.Errorf("rewrite: %w", err)
		}
		fmt.Println("---")
		fmt.Println(rewritten)
	}
	os.Exit(1)
	return nil
}
