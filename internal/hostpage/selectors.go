package hostpage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors describes where one chat site keeps its controls. Lists are tried
// in order; sites rework their markup often enough that fallbacks matter.
type Selectors struct {
	Compose          []string `yaml:"compose"`
	Submit           []string `yaml:"submit"`
	AssistantMessage []string `yaml:"assistant_message"`
	// MessageIDAttr names the attribute carrying a stable message id, if the
	// site has one. Empty means fall back to content fingerprinting.
	MessageIDAttr string `yaml:"message_id_attr"`
}

// SiteConfig maps a site key to its selector set.
type SiteConfig struct {
	Sites map[string]Selectors `yaml:"sites"`
}

// DefaultSites returns the built-in selector sets.
func DefaultSites() SiteConfig {
	return SiteConfig{
		Sites: map[string]Selectors{
			"chatgpt": {
				Compose:          []string{"#prompt-textarea", "textarea[data-id]", "div[contenteditable='true']"},
				Submit:           []string{"button[data-testid='send-button']", "button[aria-label='Send prompt']"},
				AssistantMessage: []string{"[data-message-author-role='assistant']"},
				MessageIDAttr:    "data-message-id",
			},
			"gemini": {
				Compose:          []string{"rich-textarea .ql-editor", "div[contenteditable='true']"},
				Submit:           []string{"button.send-button", "button[aria-label='Send message']"},
				AssistantMessage: []string{"message-content .markdown", ".model-response-text"},
			},
		},
	}
}

// LoadSites reads selector overrides from path. A missing file returns the
// defaults; a present file's entries replace the default entry for that site
// key wholesale.
func LoadSites(path string) (SiteConfig, error) {
	cfg := DefaultSites()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return SiteConfig{}, fmt.Errorf("hostpage: read selectors: %w", err)
	}
	var overrides SiteConfig
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return SiteConfig{}, fmt.Errorf("hostpage: parse selectors: %w", err)
	}
	for key, sel := range overrides.Sites {
		cfg.Sites[key] = sel
	}
	return cfg, nil
}

// For returns the selector set for a site key.
func (c SiteConfig) For(site string) (Selectors, error) {
	sel, ok := c.Sites[site]
	if !ok {
		return Selectors{}, fmt.Errorf("hostpage: unknown site %q", site)
	}
	return sel, nil
}
