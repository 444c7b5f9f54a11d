package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/infra/sqlite"
)

func connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func newServices(t *testing.T) (*corpus.Service, *generation.Service) {
	t.Helper()

	db, err := sqlite.Open(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := corpus.NewService(db, nil, corpus.NewTokenCache())
	return store, generation.NewService(store, generation.Defaults{ChunkSize: 1, Chunks: 5, MaxChunks: 20}, nil)
}

func decodeStructured(t *testing.T, res *mcp.CallToolResult, dst any) {
	t.Helper()

	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("unmarshal structured content %s: %v", raw, err)
	}
}

func TestTools_Listed(t *testing.T) {
	t.Parallel()

	store, gen := newServices(t)
	session := connect(t, New(gen, store, nil))

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	if !names[ToolDissociate] || !names[ToolListCorpora] {
		t.Fatalf("tools = %v; want %s and %s", names, ToolDissociate, ToolListCorpora)
	}
}

func TestDissociate_InlineSources(t *testing.T) {
	t.Parallel()

	_, gen := newServices(t)
	session := connect(t, New(gen, nil, nil))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: ToolDissociate,
		Arguments: map[string]any{
			"sources": []string{"same same same same"},
			"chunks":  3,
			"seed":    1,
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool returned error: %+v", res.Content)
	}

	var out DissociateOutput
	decodeStructured(t, res, &out)
	// Every chunk of a one-word vocabulary is "same", so the text is fixed
	// up to how early the run hits the final word.
	if out.Words < 1 || out.Words > 4 || out.Steps > 3 {
		t.Fatalf("out = %+v; want between 1 and 4 words", out)
	}
}

func TestDissociate_ErrorIsToolError(t *testing.T) {
	t.Parallel()

	_, gen := newServices(t)
	session := connect(t, New(gen, nil, nil))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolDissociate,
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for a request without input")
	}
}

func TestListCorpora(t *testing.T) {
	t.Parallel()

	store, gen := newServices(t)
	for _, name := range []string{"one", "two"} {
		if _, err := store.Create(context.Background(), corpus.CreateInput{Name: name, Sources: []string{"a b c"}}); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}
	session := connect(t, New(gen, store, nil))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolListCorpora,
		Arguments: map[string]any{"limit": 1},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool returned error: %+v", res.Content)
	}

	var out ListCorporaOutput
	decodeStructured(t, res, &out)
	if out.Total != 2 || len(out.Corpora) != 1 || out.Corpora[0].TokenCount != 3 {
		t.Fatalf("out = %+v; want total 2, one corpus of 3 tokens", out)
	}
}

func TestDissociate_SeedIndexAndChunkSize(t *testing.T) {
	t.Parallel()

	_, gen := newServices(t)
	session := connect(t, New(gen, nil, nil))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: ToolDissociate,
		Arguments: map[string]any{
			"sources":   []string{"a b c d"},
			"chunkSize": 2,
			"chunks":    0,
			"seedIndex": 1,
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool returned error: %+v", res.Content)
	}
	var out DissociateOutput
	decodeStructured(t, res, &out)
	if out.Text != "b c" {
		t.Fatalf("Text = %q; want %q", out.Text, "b c")
	}

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolDissociate,
		Arguments: map[string]any{"sources": []string{"a b c d"}, "chunkSize": 0},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for an explicit zero chunk size")
	}
}
