package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points config at a fresh temp dir; tests using it cannot run in parallel.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("DISSOCIATED_CONFIG", "")
	t.Setenv("DISSOCIATED_DB_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("DISSOCIATED_LOG_LEVEL", "error")
	t.Setenv("DISSOCIATED_STRICT", "")
	return dir
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func runCapture(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	code, out, _ := runCapture("--version")
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out, "dissociated version") {
		t.Fatalf("expected version output, got %q", out)
	}
}

func TestRun_Help_PrintsUsage(t *testing.T) {
	t.Parallel()

	code, out, _ := runCapture("--help")
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out, "Usage:") || !strings.Contains(out, "corpus add") {
		t.Fatalf("expected help output, got %q", out)
	}
}

func TestRun_InvalidFlag_Returns2(t *testing.T) {
	t.Parallel()

	if code, _, _ := runCapture("--unknown-flag"); code != exitUsage {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRun_TooFewArguments_PrintsUsage(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCapture("2", "10")
	if code != exitUsage {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(errOut, "Usage: dissociated") {
		t.Fatalf("expected usage on stderr, got %q", errOut)
	}
}

func TestRun_NonIntegerSize_Returns2(t *testing.T) {
	t.Parallel()

	if code, _, _ := runCapture("two", "10", "file.txt"); code != exitUsage {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRun_Classic_SeedChunkOnly(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, "in.txt", "x y\nx y x y\r\nx y")

	code, out, errOut := runCapture("--start", "2", "2", "0", input)
	if code != exitOK {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	if out != "x y\n" {
		t.Fatalf("stdout = %q; want %q", out, "x y\n")
	}
}

func TestRun_Classic_MultipleFilesConcatenate(t *testing.T) {
	dir := isolate(t)
	a := writeInput(t, dir, "a.txt", "one two ")
	b := writeInput(t, dir, "b.txt", "three")

	code, out, errOut := runCapture("--start", "0", "3", "0", a, b)
	if code != exitOK {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	if out != "one two three\n" {
		t.Fatalf("stdout = %q; want %q", out, "one two three\n")
	}
}

func TestRun_Classic_SameSeedSameOutput(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, "in.txt", "the cat sat on the mat and the dog sat on the cat")

	_, first, _ := runCapture("--seed", "42", "1", "20", input)
	_, second, _ := runCapture("--seed", "42", "1", "20", input)
	if first == "" || first != second {
		t.Fatalf("outputs differ or empty: %q vs %q", first, second)
	}
}

func TestRun_Classic_Stats(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, "in.txt", "a b a b a b")

	code, _, errOut := runCapture("--stats", "--seed", "3", "1", "4", input)
	if code != exitOK {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	if !strings.Contains(errOut, "choices=") || !strings.Contains(errOut, "stop=") {
		t.Fatalf("stderr = %q; want statistics", errOut)
	}
}

func TestRun_Classic_Errors(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, "in.txt", "a b c")
	blank := writeInput(t, dir, "blank.txt", " \n\r\n")

	cases := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"2", "5", filepath.Join(dir, "nope.txt")}},
		{"chunk size zero", []string{"0", "5", input}},
		{"chunk size too large", []string{"4", "5", input}},
		{"negative chunks", []string{"1", "-1", input}},
		{"empty input", []string{"1", "5", blank}},
		{"start out of range", []string{"--start", "9", "1", "5", input}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, errOut := runCapture(tc.args...)
			if code != exitError {
				t.Fatalf("exit code = %d; want %d (stderr %q)", code, exitError, errOut)
			}
			if !strings.HasPrefix(errOut, "error: ") {
				t.Fatalf("stderr = %q; want error message", errOut)
			}
		})
	}
}

func TestRun_HashPassword(t *testing.T) {
	t.Parallel()

	code, out, _ := runCapture("hash-password", "hunter2")
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.HasPrefix(out, "$2a$") {
		t.Fatalf("stdout = %q; want bcrypt hash", out)
	}

	if code, _, _ := runCapture("hash-password"); code != exitUsage {
		t.Fatalf("expected exit code 2 without password, got %d", code)
	}
}

func TestRun_CorpusLifecycle(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, "poem.txt", "roses are red violets are blue")

	code, out, errOut := runCapture("corpus", "add", "poem", input)
	if code != exitOK {
		t.Fatalf("corpus add: exit %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "poem") || !strings.Contains(out, "6 tokens") {
		t.Fatalf("corpus add output = %q", out)
	}

	code, out, _ = runCapture("corpus", "list")
	if code != exitOK || !strings.Contains(out, "NAME") || !strings.Contains(out, "poem") {
		t.Fatalf("corpus list: exit %d, output %q", code, out)
	}

	code, out, errOut = runCapture("gen", "--start", "0", "poem", "3", "0")
	if code != exitOK {
		t.Fatalf("gen: exit %d, stderr %q", code, errOut)
	}
	if out != "roses are red\n" {
		t.Fatalf("gen output = %q; want %q", out, "roses are red\n")
	}

	code, out, errOut = runCapture("gen", "--seed", "1", "poem", "0", "2")
	if code != exitError || out != "" {
		t.Fatalf("gen with chunk size 0: exit %d, stdout %q; want %d and no output", code, out, exitError)
	}
	if !strings.Contains(errOut, "chunk size") {
		t.Fatalf("gen with chunk size 0: stderr %q; want chunk size error", errOut)
	}

	if code, _, _ = runCapture("corpus", "add", "poem", input); code != exitError {
		t.Fatalf("duplicate add: exit %d; want %d", code, exitError)
	}

	if code, _, _ = runCapture("corpus", "rm", "poem"); code != exitOK {
		t.Fatalf("corpus rm: exit %d", code)
	}
	if code, _, _ = runCapture("gen", "poem", "2", "5"); code != exitError {
		t.Fatalf("gen after rm: exit %d; want %d", code, exitError)
	}
}

func TestRun_CorpusImport(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "a.txt", "alpha beta")
	writeInput(t, dir, "b.txt", "gamma delta")
	manifest := writeInput(t, dir, "corpora.yml", "corpora:\n  - name: first\n    files: [a.txt]\n  - name: second\n    files: [a.txt, b.txt]\n")

	code, out, errOut := runCapture("corpus", "import", manifest)
	if code != exitOK {
		t.Fatalf("corpus import: exit %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Fatalf("import output = %q", out)
	}
}

func TestRun_CorpusUsage(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"corpus"},
		{"corpus", "add", "only-name"},
		{"corpus", "frobnicate"},
		{"gen", "poem", "2"},
		{"serve", "extra"},
	} {
		if code, _, _ := runCapture(args...); code != exitUsage {
			t.Errorf("%v: exit %d; want %d", args, code, exitUsage)
		}
	}
}
