package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/audit"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify the decision log hash chain",
	Long: "Validates the tamper-evident hash chain of the decision log.\n" +
		"Defaults to <data dir>/decisions.jsonl.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = filepath.Join(cfg.DataDir, "decisions.jsonl")
		}

		result := audit.Verify(path)
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if !result.Valid {
			os.Exit(1)
		}
		return nil
	},
}
