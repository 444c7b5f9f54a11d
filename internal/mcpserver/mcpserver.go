// Package mcpserver exposes generation and the corpus list as MCP tools, so
// assistants can call the generator over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/domain/press"
	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
	"github.com/matiasleandrokruk/dissociated/internal/version"
)

const (
	ToolDissociate   = "dissociate"
	ToolListCorpora  = "list_corpora"
	defaultListLimit = 50
)

// Generator is satisfied by *generation.Service.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*press.Result, error)
}

// CorpusLister is satisfied by *corpus.Service.
type CorpusLister interface {
	List(ctx context.Context, input corpus.ListInput) ([]*corpus.Corpus, int, error)
}

type DissociateInput struct {
	Corpus    string   `json:"corpus,omitempty" jsonschema:"stored corpus id or name; mutually exclusive with sources"`
	Sources   []string `json:"sources,omitempty" jsonschema:"inline source texts, concatenated in order"`
	ChunkSize *int     `json:"chunkSize,omitempty" jsonschema:"words per chunk; server default when omitted"`
	SeedIndex *int     `json:"seedIndex,omitempty" jsonschema:"token index of the seed chunk; random when omitted"`
	Chunks    *int     `json:"chunks,omitempty" jsonschema:"chunks to append after the seed"`
	Seed      *uint64  `json:"seed,omitempty" jsonschema:"random seed for reproducible output"`
	Prompt    string   `json:"prompt,omitempty" jsonschema:"text to start from instead of a random chunk"`
	Strict    *bool    `json:"strict,omitempty" jsonschema:"fail instead of stopping early on a dead end"`
}

type DissociateOutput struct {
	Text       string `json:"text"`
	Words      int    `json:"words"`
	Steps      int    `json:"steps"`
	Choices    string `json:"choices"`
	StopReason string `json:"stopReason,omitempty"`
}

type ListCorporaInput struct {
	Limit  int `json:"limit,omitempty" jsonschema:"page size, default 50"`
	Offset int `json:"offset,omitempty" jsonschema:"page offset"`
}

type CorpusSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TokenCount int    `json:"tokenCount"`
}

type ListCorporaOutput struct {
	Corpora []CorpusSummary `json:"corpora"`
	Total   int             `json:"total"`
}

// New builds the MCP server. corpora may be nil, in which case list_corpora
// is not registered.
func New(gen Generator, corpora CorpusLister, logger logging.Logger) *mcp.Server {
	if logger == nil {
		logger = logging.Nop()
	}

	server := mcp.NewServer(&mcp.Implementation{Name: version.Name, Version: version.Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolDissociate,
		Description: "Generate Dissociated Press text by resampling word chunks of a corpus.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in DissociateInput) (*mcp.CallToolResult, DissociateOutput, error) {
		res, err := gen.Generate(ctx, generation.Request{
			Corpus:    in.Corpus,
			Sources:   in.Sources,
			ChunkSize: in.ChunkSize,
			Chunks:    in.Chunks,
			SeedIndex: in.SeedIndex,
			Seed:      in.Seed,
			Prompt:    in.Prompt,
			Strict:    in.Strict,
		})
		if err != nil {
			logger.Warn("mcp dissociate failed", "err", err)
			return nil, DissociateOutput{}, err
		}
		return nil, DissociateOutput{
			Text:       res.Text,
			Words:      len(res.Tokens),
			Steps:      len(res.Steps),
			Choices:    res.Choices.String(),
			StopReason: string(res.StopReason),
		}, nil
	})

	if corpora != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        ToolListCorpora,
			Description: "List stored corpora, newest first.",
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in ListCorporaInput) (*mcp.CallToolResult, ListCorporaOutput, error) {
			limit := in.Limit
			if limit <= 0 {
				limit = defaultListLimit
			}
			items, total, err := corpora.List(ctx, corpus.ListInput{Limit: limit, Offset: max(in.Offset, 0)})
			if err != nil {
				return nil, ListCorporaOutput{}, err
			}
			out := ListCorporaOutput{Corpora: make([]CorpusSummary, 0, len(items)), Total: total}
			for _, c := range items {
				out.Corpora = append(out.Corpora, CorpusSummary{ID: c.ID, Name: c.Name, TokenCount: c.TokenCount})
			}
			return nil, out, nil
		})
	}

	return server
}

// RunStdio serves MCP over stdin/stdout until the client disconnects or ctx ends.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
