// Package cli wires the janus commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Privacy boundary daemon for LLM conversations",
	Long: "Screens outbound prompts against a selected identity before they reach\n" +
		"an LLM surface, audits inbound replies for leaked personal facts, and\n" +
		"composes corrective messages when a conversation knows too much.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default <data dir>/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// buildClassifier selects the completion provider from config and wraps it
// in the classifier client.
func buildClassifier(ctx context.Context, cfg *config.Config) (*classify.Client, error) {
	switch cfg.Provider {
	case "bedrock":
		provider, err := classify.NewBedrockProvider(ctx, classify.BedrockConfig{
			Region:  cfg.Bedrock.Region,
			ModelID: cfg.Bedrock.ModelID,
		})
		if err != nil {
			return nil, fmt.Errorf("bedrock provider: %w", err)
		}
		return classify.NewClient(provider), nil
	default:
		provider := classify.NewOpenAIProvider(classify.OpenAIConfig{
			APIURL:  cfg.OpenAI.APIURL,
			APIKey:  cfg.APIKey(),
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout(),
		})
		return classify.NewClient(provider), nil
	}
}
