package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/history"
)

var (
	historyLimit  int
	historyFormat string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum corrections to show")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show corrections sent, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.Corrections(historyLimit)
		if err != nil {
			return err
		}

		if historyFormat == "json" {
			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		if len(records) == 0 {
			fmt.Println("no corrections recorded")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%s  %-6s  %s\n    %s\n",
				rec.At.Format("2006-01-02 15:04"), rec.Kind, rec.Identity, rec.Message)
		}
		return nil
	},
}
