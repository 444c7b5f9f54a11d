package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/matiasleandrokruk/dissociated/internal/api"
	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/domain/press"
	"github.com/matiasleandrokruk/dissociated/internal/mcpserver"
	"github.com/matiasleandrokruk/dissociated/internal/server"
	pkgauth "github.com/matiasleandrokruk/dissociated/pkg/auth"
)

type command func(args []string, stdout, stderr io.Writer) int

var commands = map[string]command{
	"serve":         cmdServe,
	"mcp":           cmdMCP,
	"corpus":        cmdCorpus,
	"gen":           cmdGen,
	"hash-password": cmdHashPassword,
}

const corpusListLimit = 100

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdServe(args []string, _, stderr io.Writer) int {
	if len(args) != 0 {
		return fail(stderr, fmt.Errorf("%w: serve takes no arguments", errUsage))
	}

	a, err := newApp(stderr, true)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()
	a.watch(ctx)

	deps := api.Deps{
		DB:        a.db,
		Corpora:   a.corpora,
		Generator: a.generationService(),
		Logger:    a.logger,
	}
	if a.cfg.AuthEnabled() {
		issuer, err := pkgauth.NewIssuer(a.cfg.JWTSecret, time.Duration(a.cfg.JWTExpiryHours)*time.Hour)
		if err != nil {
			return fail(stderr, err)
		}
		deps.Issuer = issuer
		deps.PasswordHash = a.cfg.AdminPasswordHash
		if deps.PasswordHash == "" {
			a.logger.Warn("auth enabled without admin password hash; /auth/token is disabled")
		}
	} else {
		a.logger.Warn("JWT_SECRET not set; /api/v1 is unauthenticated")
	}

	cfg := server.DefaultConfig()
	cfg.Host = a.cfg.HTTPHost
	cfg.Port = a.cfg.HTTPPort
	srv := server.NewServer(api.NewRouter(deps), a.db, cfg, a.logger)
	if err := srv.Run(ctx); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

func cmdMCP(args []string, _, stderr io.Writer) int {
	if len(args) != 0 {
		return fail(stderr, fmt.Errorf("%w: mcp takes no arguments", errUsage))
	}

	a, err := newApp(stderr, true)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()
	a.watch(ctx)

	if err := mcpserver.RunStdio(ctx, mcpserver.New(a.generationService(), a.corpora, a.logger)); err != nil && ctx.Err() == nil {
		return fail(stderr, err)
	}
	return exitOK
}

func cmdCorpus(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return fail(stderr, fmt.Errorf("%w: corpus add|import|list|rm", errUsage))
	}
	sub, rest := args[0], args[1:]

	switch {
	case sub == "add" && len(rest) >= 2:
	case sub == "import" && len(rest) == 1:
	case sub == "list" && len(rest) == 0:
	case sub == "rm" && len(rest) == 1:
	default:
		return fail(stderr, fmt.Errorf("%w: corpus add <name> <file>... | import <manifest.yml> | list | rm <id|name>", errUsage))
	}

	a, err := newApp(stderr, true)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()
	ctx := context.Background()

	switch sub {
	case "add":
		sources, err := corpus.ReadFiles(rest[1:])
		if err != nil {
			return fail(stderr, err)
		}
		c, err := a.corpora.Create(ctx, corpus.CreateInput{Name: rest[0], Sources: sources})
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "%s\t%s\t%d tokens\n", c.ID, c.Name, c.TokenCount) //nolint:errcheck

	case "import":
		m, err := corpus.LoadManifest(rest[0])
		if err != nil {
			return fail(stderr, err)
		}
		created, err := a.corpora.Import(ctx, m)
		for _, c := range created {
			fmt.Fprintf(stdout, "%s\t%s\t%d tokens\n", c.ID, c.Name, c.TokenCount) //nolint:errcheck
		}
		if err != nil {
			return fail(stderr, err)
		}

	case "list":
		items, total, err := a.corpora.List(ctx, corpus.ListInput{Limit: corpusListLimit})
		if err != nil {
			return fail(stderr, err)
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTOKENS\tSOURCES\tCREATED") //nolint:errcheck
		for _, c := range items {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", c.ID, c.Name, c.TokenCount, c.SourceCount, c.CreatedAt.Format(time.RFC3339)) //nolint:errcheck
		}
		tw.Flush() //nolint:errcheck
		if total > len(items) {
			fmt.Fprintf(stderr, "showing %d of %d corpora\n", len(items), total) //nolint:errcheck
		}

	case "rm":
		if err := a.corpora.Delete(ctx, rest[0]); err != nil {
			return fail(stderr, err)
		}
	}
	return exitOK
}

func cmdGen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	gf := registerGenFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fail(stderr, fmt.Errorf("%w: %v", errUsage, err))
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return fail(stderr, fmt.Errorf("%w: gen [flags] <corpus> <chunk_size> <chunks>", errUsage))
	}
	chunkSize, chunks, err := parseSizes(rest[1], rest[2])
	if err != nil {
		return fail(stderr, fmt.Errorf("%w: %v", errUsage, err))
	}

	a, err := newApp(stderr, true)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	req := gf.request(fs, generation.Request{Corpus: rest[0], ChunkSize: &chunkSize, Chunks: &chunks})
	return generate(a.generationService(), req, *gf.stats, stdout, stderr)
}

func cmdHashPassword(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 || args[0] == "" {
		return fail(stderr, fmt.Errorf("%w: hash-password <password>", errUsage))
	}
	hash, err := pkgauth.HashPassword(args[0])
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, hash) //nolint:errcheck
	return exitOK
}

func stopReason(r press.StopReason) string {
	if r == press.StopNone {
		return "none"
	}
	return string(r)
}
