// dissociated - Dissociated Press text generator.
//
// Default mode keeps the classic interface:
//
//	dissociated [flags] <chunk_size> <chunks> <input_file> [input_file2...]
//
// Subcommands add a stored corpus library, an HTTP API and an MCP server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/version"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		if cmd, ok := commands[args[0]]; ok {
			return cmd(args[1:], stdout, stderr)
		}
	}
	return runClassic(args, stdout, stderr)
}

// genFlags are shared by the classic mode and "gen".
type genFlags struct {
	seed   *uint64
	start  *int
	strict *bool
	stats  *bool
}

func registerGenFlags(fs *flag.FlagSet) *genFlags {
	return &genFlags{
		seed:   fs.Uint64("seed", 0, "Random seed for reproducible output (default random)"),
		start:  fs.Int("start", 0, "Token index of the seed chunk (default random)"),
		strict: fs.Bool("strict", false, "Fail instead of stopping early at a dead end"),
		stats:  fs.Bool("stats", false, "Print generation statistics to stderr"),
	}
}

// request fills the optional fields of req from the flags set on fs.
func (f *genFlags) request(fs *flag.FlagSet, req generation.Request) generation.Request {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "seed":
			req.Seed = f.seed
		case "start":
			req.SeedIndex = f.start
		case "strict":
			req.Strict = f.strict
		}
	})
	return req
}

func runClassic(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(version.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	gf := registerGenFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n", err) //nolint:errcheck
		printUsage(stderr)
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String()) //nolint:errcheck
		return exitOK
	}
	if *showHelp {
		printHelp(stdout)
		return exitOK
	}

	rest := fs.Args()
	if len(rest) < 3 {
		printUsage(stderr)
		return exitUsage
	}
	chunkSize, chunks, err := parseSizes(rest[0], rest[1])
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n", err) //nolint:errcheck
		printUsage(stderr)
		return exitUsage
	}

	app, err := newApp(stderr, false)
	if err != nil {
		return fail(stderr, err)
	}
	defer app.Close()

	sources, err := corpus.ReadFiles(rest[2:])
	if err != nil {
		return fail(stderr, err)
	}

	// No chunk cap and no config defaults here: the positional arguments are authoritative.
	gen := generation.NewService(nil, generation.Defaults{Strict: app.cfg.Strict}, app.logger)
	req := gf.request(fs, generation.Request{Sources: sources, ChunkSize: &chunkSize, Chunks: &chunks})
	return generate(gen, req, *gf.stats, stdout, stderr)
}

func parseSizes(chunkSizeArg, chunksArg string) (int, int, error) {
	chunkSize, err := strconv.Atoi(chunkSizeArg)
	if err != nil {
		return 0, 0, fmt.Errorf("chunk_size must be an integer, got %q", chunkSizeArg)
	}
	chunks, err := strconv.Atoi(chunksArg)
	if err != nil {
		return 0, 0, fmt.Errorf("chunks must be an integer, got %q", chunksArg)
	}
	return chunkSize, chunks, nil
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "error: %v\n", err) //nolint:errcheck
	if errors.Is(err, errUsage) {
		return exitUsage
	}
	return exitError
}

func printUsage(out io.Writer) {
	usage := `Dissociated Press implementation
("An algorithm for generating text based on another text.")
Usage: dissociated [flags] <chunk_size> <chunks> <input_file> [input_file2...]
Final text will be about chunk_size * chunks words long.
Run "dissociated --help" for flags and subcommands.`
	fmt.Fprintln(out, usage) //nolint:errcheck
}

func printHelp(out io.Writer) {
	helpText := `dissociated - Dissociated Press text generator

Usage:
  dissociated [flags] <chunk_size> <chunks> <input_file> [input_file2...]
  dissociated <command> [args]

Flags:
  --seed N     Random seed for reproducible output (default random)
  --start N    Token index of the seed chunk (default random)
  --strict     Fail instead of stopping early at a dead end
  --stats      Print match-count product and stop reason to stderr
  --version    Show version information
  --help       Show this help message

Commands:
  serve                              Start the HTTP API
  mcp                                Serve MCP tools over stdio
  corpus add <name> <file>...        Store files as a named corpus
  corpus import <manifest.yml>       Store every corpus listed in a manifest
  corpus list                        List stored corpora
  corpus rm <id|name>                Delete a stored corpus
  gen [flags] <corpus> <chunk_size> <chunks>
                                     Generate from a stored corpus
  hash-password <password>           Print a bcrypt hash for DISSOCIATED_ADMIN_PASSWORD_HASH

Examples:
  dissociated 2 100 book.txt
  dissociated --seed 42 3 50 a.txt b.txt
  dissociated corpus add alice alice.txt && dissociated gen alice 2 100`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
