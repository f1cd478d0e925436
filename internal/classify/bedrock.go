package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockConfig holds parameters for the Bedrock provider.
type BedrockConfig struct {
	Region  string
	ModelID string
}

// BedrockProvider runs completions through Amazon Bedrock's InvokeModel API
// with Anthropic-style message bodies.
type BedrockProvider struct {
	cfg    BedrockConfig
	client *bedrockruntime.Client
}

// NewBedrockProvider resolves AWS credentials from the environment and builds
// a Bedrock runtime client.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("classify: load aws config: %w", err)
	}
	return &BedrockProvider{
		cfg:    cfg,
		client: bedrockruntime.NewFromConfig(awsCfg),
	}, nil
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Temperature      float64          `json:"temperature"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockMessage struct {
	Role    string           `json:"role"`
	Content []bedrockContent `json:"content"`
}

type bedrockContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends one system+user exchange and returns the reply text.
func (p *BedrockProvider) Complete(ctx context.Context, creq completionRequest) (string, error) {
	maxTokens := creq.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}

	body, _ := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      creq.Temperature,
		System:           creq.System,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockContent{{Type: "text", Text: creq.User}}},
		},
	})

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.cfg.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke: %w", err)
	}

	var result struct {
		Content []bedrockContent `json:"content"`
	}
	if err := json.Unmarshal(out.Body, &result); err != nil {
		return "", fmt.Errorf("bedrock response: %w", err)
	}
	var b strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("empty bedrock response")
	}
	return text, nil
}
