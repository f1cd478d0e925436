package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/identity"
	"github.com/januspriv/janus/internal/model"
)

var identityFormat string

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.PersistentFlags().StringVarP(&identityFormat, "format", "f", "text", "Output format (text|json)")
	identityCmd.AddCommand(identityListCmd)
	identityCmd.AddCommand(identityShowCmd)
	identityCmd.AddCommand(identitySelectCmd)
	identityCmd.AddCommand(identityCreateCmd)
}

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage privacy identities",
}

func openIdentityStore() (*identity.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return identity.NewStore(cfg.DataDir)
}

var identityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openIdentityStore()
		if err != nil {
			return err
		}
		records, err := store.List()
		if err != nil {
			return err
		}
		selected, err := store.Selected()
		if err != nil {
			return err
		}

		if identityFormat == "json" {
			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		if len(records) == 0 {
			fmt.Println("no identities")
			return nil
		}
		for _, rec := range records {
			marker := " "
			if selected != nil && selected.ID == rec.ID {
				marker = "*"
			}
			fmt.Printf("%s %-36s %s (%d characteristics)\n", marker, rec.ID, rec.Name, len(rec.Characteristics))
		}
		return nil
	},
}

var identityShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one identity record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openIdentityStore()
		if err != nil {
			return err
		}
		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}

		if identityFormat == "json" {
			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		fmt.Printf("%s (%s)\n", rec.Name, rec.ID)
		if rec.Summary != "" {
			fmt.Printf("  %s\n", rec.Summary)
		}
		for _, c := range rec.Characteristics {
			fmt.Printf("  %s: %s\n", c.Name, c.Value)
		}
		for _, c := range rec.FakeCharacteristics {
			fmt.Printf("  %s: %s (decoy)\n", c.Name, c.Value)
		}
		return nil
	},
}

var identitySelectCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Select the active identity, or clear the selection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openIdentityStore()
		if err != nil {
			return err
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		if err := store.Select(id); err != nil {
			return err
		}
		if id == "" {
			fmt.Println("selection cleared")
		} else {
			fmt.Printf("selected %s\n", id)
		}
		return nil
	},
}

var identityCreateName string

func init() {
	identityCreateCmd.Flags().StringVar(&identityCreateName, "name", "", "Identity name (required)")
	identityCreateCmd.MarkFlagRequired("name")
}

var identityCreateCmd = &cobra.Command{
	Use:   "create --name <name> [description...]",
	Short: "Create an identity from a free-text self-description",
	Long: "Extracts characteristics from the description via the classifier,\n" +
		"generates a short summary, and saves the record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := identity.NewStore(cfg.DataDir)
		if err != nil {
			return err
		}

		ctx := context.Background()
		rec := &model.Identity{Name: identityCreateName}

		if desc := strings.TrimSpace(strings.Join(args, " ")); desc != "" {
			classifier, err := buildClassifier(ctx, cfg)
			if err != nil {
				return err
			}
			rec.Prompt = desc
			rec.Characteristics, err = classifier.ExtractCharacteristics(ctx, desc, nil)
			if err != nil {
				return fmt.Errorf("extract characteristics: %w", err)
			}
			rec.Summary, err = classifier.Summarize(ctx, rec.Name, rec.Characteristics)
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}
		}

		if err := store.Save(rec); err != nil {
			return err
		}
		fmt.Printf("created %s\n", rec.ID)
		return nil
	},
}
