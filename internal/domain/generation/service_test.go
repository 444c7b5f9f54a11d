package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/dissociated/internal/domain/press"
)

type fakeCorpora map[string][]string

func (f fakeCorpora) Tokens(_ context.Context, ref string) ([]string, error) {
	tokens, ok := f[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return tokens, nil
}

func ptr[T any](v T) *T { return &v }

var testDefaults = Defaults{ChunkSize: 2, Chunks: 3, MaxChunks: 10}

func TestService_Generate_InlineSourcesWithDefaults(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, testDefaults, nil)
	res, err := svc.Generate(context.Background(), Request{
		Sources: []string{"a b a b a b a b a b"},
		Seed:    ptr(uint64(1)),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(res.Seed) != 2 {
		t.Fatalf("len(Seed) = %d; want default chunk size 2", len(res.Seed))
	}
	if len(res.Steps) > 3 {
		t.Fatalf("len(Steps) = %d; want at most default 3", len(res.Steps))
	}
	if !res.Stopped && len(res.Tokens) != 2*(3+1) {
		t.Fatalf("len(Tokens) = %d; want 8 (%q)", len(res.Tokens), res.Text)
	}
}

func TestService_Generate_StoredCorpus(t *testing.T) {
	t.Parallel()

	svc := NewService(fakeCorpora{"xy": {"x", "y", "x", "y", "z"}}, testDefaults, nil)
	res, err := svc.Generate(context.Background(), Request{
		Corpus:    "xy",
		ChunkSize: ptr(2),
		Chunks:    ptr(0),
		SeedIndex: ptr(2),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Text != "x y" {
		t.Fatalf("Text = %q; want %q", res.Text, "x y")
	}
}

func TestService_Generate_SameSeedSameText(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, testDefaults, nil)
	req := Request{Sources: []string{strings.Repeat("it was the best of times it was the worst of times ", 3)}, ChunkSize: ptr(1), Chunks: ptr(10), Seed: ptr(uint64(99))}

	a, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if a.Text != b.Text {
		t.Fatalf("texts differ for equal seeds: %q vs %q", a.Text, b.Text)
	}
}

func TestService_Generate_InputErrors(t *testing.T) {
	t.Parallel()

	svc := NewService(fakeCorpora{}, testDefaults, nil)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, Request{}); !errors.Is(err, ErrNoInput) {
		t.Errorf("empty request error = %v; want ErrNoInput", err)
	}
	if _, err := svc.Generate(ctx, Request{Corpus: "c", Sources: []string{"a"}}); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("ambiguous request error = %v; want ErrAmbiguous", err)
	}
	if _, err := svc.Generate(ctx, Request{Sources: []string{"a b c"}, Chunks: ptr(11)}); !errors.Is(err, ErrTooManyChunks) {
		t.Errorf("too many chunks error = %v; want ErrTooManyChunks", err)
	}
	if _, err := svc.Generate(ctx, Request{Sources: []string{"a b c"}, ChunkSize: ptr(-1)}); !errors.Is(err, press.ErrInvalidChunkSize) {
		t.Errorf("negative chunk size error = %v; want press.ErrInvalidChunkSize", err)
	}
	if _, err := svc.Generate(ctx, Request{Sources: []string{"a b c"}, ChunkSize: ptr(0)}); !errors.Is(err, press.ErrInvalidChunkSize) {
		t.Errorf("explicit zero chunk size error = %v; want press.ErrInvalidChunkSize", err)
	}
}

func TestService_Generate_StrictOverride(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, testDefaults, nil)
	req := Request{Sources: []string{"a b c d"}, Prompt: "q r", Chunks: ptr(2)}

	res, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("graceful Generate() error = %v", err)
	}
	if res.StopReason != press.StopNoMatch {
		t.Fatalf("StopReason = %q; want no_match", res.StopReason)
	}

	req.Strict = ptr(true)
	if _, err := svc.Generate(context.Background(), req); !errors.Is(err, press.ErrNoMatch) {
		t.Fatalf("strict Generate() error = %v; want ErrNoMatch", err)
	}
}

func TestService_Generate_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(nil, testDefaults, nil)
	if _, err := svc.Generate(ctx, Request{Sources: []string{"a b"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v; want context.Canceled", err)
	}
}
