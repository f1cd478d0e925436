// Package mcp exposes the privacy operations as MCP tools, so non-browser
// clients (editors, agents) can screen text through the same pipeline the
// bridge serves.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
)

// IdentityStore is the slice of the identity store the tools need.
type IdentityStore interface {
	Selected() (*model.Identity, error)
	Get(id string) (*model.Identity, error)
	MergeFakes(id string, fakes []model.Characteristic) error
}

// Config holds the MCP server's collaborators.
type Config struct {
	Classifier classify.Service
	Identities IdentityStore
	Composer   *correction.Composer
	Log        *logging.Logger
}

// Server wraps the MCP SDK server with the janus tool set.
type Server struct {
	mcpServer  *mcpsdk.Server
	classifier classify.Service
	identities IdentityStore
	composer   *correction.Composer
	log        *logging.Logger
}

// New creates an MCP server with the janus tools registered.
func New(cfg Config) *Server {
	s := &Server{
		classifier: cfg.Classifier,
		identities: cfg.Identities,
		composer:   cfg.Composer,
		log:        cfg.Log,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "janus",
			Version: "0.1.0",
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all janus tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_detect",
		Description: "Screen outbound text for personal information exceeding the selected identity's disclosure bounds.",
	}, s.handleDetect)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_rewrite",
		Description: "Rewrite text to remove or naturalize the given flagged items, leaving everything else intact.",
	}, s.handleRewrite)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_check_context",
		Description: "Decide whether a prompt would benefit from a short parenthetical of identity context, and produce the augmented prompt.",
	}, s.handleCheckContext)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_audit_response",
		Description: "Screen an assistant reply for evidence it knows personal facts beyond the selected identity.",
	}, s.handleAuditResponse)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_compose_correction",
		Description: "Turn per-item deny/pollute decisions into one self-contained corrective message.",
	}, s.handleComposeCorrection)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_identity_switched",
		Description: "Diff two identities and compose the correction message for switching between them.",
	}, s.handleIdentitySwitched)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_extract_characteristics",
		Description: "Extract attribute/value pairs from a free-text self-description.",
	}, s.handleExtract)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_summarize",
		Description: "Write a short natural-language description of an identity from its characteristics.",
	}, s.handleSummarize)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_generate_decoys",
		Description: "Propose plausible false values for the given real characteristics.",
	}, s.handleGenerateDecoys)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "janus_get_identity",
		Description: "Return the currently selected identity, if any.",
	}, s.handleGetIdentity)
}
