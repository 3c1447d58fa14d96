package gallerydl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"mgdl/internal/config"
	"mgdl/internal/logging"
	"mgdl/internal/services"
	"mgdl/internal/services/gallerydl"
)

type stubExecutor struct {
	lines  []gallerydl.Line
	err    error
	calls  int
	binary string
	args   []string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(gallerydl.Line)) error {
	s.calls++
	s.binary = binary
	s.args = append([]string(nil), args...)
	for _, line := range s.lines {
		onLine(line)
	}
	return s.err
}

func newClient(t *testing.T, exec gallerydl.Executor, mutate func(*config.Fetch)) *gallerydl.Client {
	t.Helper()
	cfg := config.Default().Fetch
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := gallerydl.New(cfg, logging.NewNop(), gallerydl.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestFetchBuildsFullDownloadArgs(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec, nil)
	dir := filepath.Join(t.TempDir(), "one_piece")

	if _, err := client.Fetch(context.Background(), gallerydl.Request{Dir: dir, Source: "https://example.test/series/abc/one_piece"}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if exec.binary != "gallery-dl" {
		t.Fatalf("unexpected binary %q", exec.binary)
	}
	want := []string{"-D", dir, "https://example.test/series/abc/one_piece"}
	if !slices.Equal(exec.args, want) {
		t.Fatalf("args = %v, want %v", exec.args, want)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected fetch dir to be created: %v", err)
	}
}

func TestFetchAddsChapterFilterAndExtraArgs(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec, func(f *config.Fetch) {
		f.ExtraArgs = []string{"--sleep", "1"}
	})
	after := uint(42)
	dir := t.TempDir()

	if _, err := client.Fetch(context.Background(), gallerydl.Request{Dir: dir, Source: "src", After: &after}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := []string{"-D", dir, "--chapter-filter", "42 < chapter", "--sleep", "1", "src"}
	if !slices.Equal(exec.args, want) {
		t.Fatalf("args = %v, want %v", exec.args, want)
	}
}

func TestFetchAddsChapterRangeAndForce(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec, nil)
	dir := t.TempDir()

	req := gallerydl.Request{Dir: dir, Source: "src", Chapters: "1-3,7", Force: true}
	if _, err := client.Fetch(context.Background(), req); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := []string{"-D", dir, "--chapter-range", "1-3,7", "--no-skip", "src"}
	if !slices.Equal(exec.args, want) {
		t.Fatalf("args = %v, want %v", exec.args, want)
	}
}

func TestValidateChapterRange(t *testing.T) {
	for _, spec := range []string{"", "4", "1-3", "1-3,7,10-12"} {
		if err := gallerydl.ValidateChapterRange(spec); err != nil {
			t.Errorf("ValidateChapterRange(%q) = %v", spec, err)
		}
	}
	for _, spec := range []string{"a", "1-", "-3", "1,,2", "1-2-3", "1; rm"} {
		if err := gallerydl.ValidateChapterRange(spec); !errors.Is(err, services.ErrValidation) {
			t.Errorf("ValidateChapterRange(%q) = %v, want ErrValidation", spec, err)
		}
	}
}

func TestFetchCountsOutput(t *testing.T) {
	exec := &stubExecutor{lines: []gallerydl.Line{
		{Text: "/lib/foo/foo_c001_001.jpg"},
		{Text: "# /lib/foo/foo_c001_002.jpg"},
		{Text: "/lib/foo/foo_c001_003.jpg"},
		{Text: "[weebcentral][info] fetching", Stderr: true},
		{Text: ""},
	}}
	result, err := newClient(t, exec, nil).Fetch(context.Background(), gallerydl.Request{Dir: t.TempDir(), Source: "src"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Downloaded != 2 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFetchFailureIsSourceErrorWithStderrTail(t *testing.T) {
	exec := &stubExecutor{
		lines: []gallerydl.Line{
			{Text: "first", Stderr: true},
			{Text: "[error] HttpError: 404 Not Found", Stderr: true},
		},
		err: errors.New("wait command: exit status 1"),
	}
	_, err := newClient(t, exec, nil).Fetch(context.Background(), gallerydl.Request{Dir: t.TempDir(), Source: "src"})
	if !errors.Is(err, services.ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
	if !strings.Contains(err.Error(), "404 Not Found") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
}

func TestFetchValidatesRequest(t *testing.T) {
	client := newClient(t, &stubExecutor{}, nil)
	for name, req := range map[string]gallerydl.Request{
		"no dir":    {Source: "src"},
		"no source": {Dir: t.TempDir()},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := client.Fetch(context.Background(), req); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNewRequiresBinary(t *testing.T) {
	_, err := gallerydl.New(config.Fetch{Binary: "  "}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-gallery-dl")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCommandExecutorRunsProcess(t *testing.T) {
	script := writeScript(t, `echo "$2/foo_c001_001.jpg"
echo "warning" >&2
exit 0
`)
	client, err := gallerydl.New(config.Fetch{Binary: script}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result, err := client.Fetch(context.Background(), gallerydl.Request{Dir: t.TempDir(), Source: "src"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Downloaded != 1 {
		t.Fatalf("expected one downloaded line, got %+v", result)
	}
}

func TestCommandExecutorReportsExitStatus(t *testing.T) {
	script := writeScript(t, "echo 'rate limited' >&2\nexit 4\n")
	client, err := gallerydl.New(config.Fetch{Binary: script}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Fetch(context.Background(), gallerydl.Request{Dir: t.TempDir(), Source: "src"})
	if !errors.Is(err, services.ErrSource) || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected ErrSource carrying stderr, got %v", err)
	}
}

func TestCommandExecutorTimeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")
	client, err := gallerydl.New(config.Fetch{Binary: script, Timeout: 1}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	started := time.Now()
	_, err = client.Fetch(context.Background(), gallerydl.Request{Dir: t.TempDir(), Source: "src"})
	if !errors.Is(err, services.ErrSource) || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout ErrSource, got %v", err)
	}
	if time.Since(started) > 4*time.Second {
		t.Fatal("timeout did not interrupt the process")
	}
}

func TestMissingBinaryIsConfigurationError(t *testing.T) {
	client, err := gallerydl.New(config.Fetch{Binary: "mgdl-definitely-missing-binary"}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Fetch(context.Background(), gallerydl.Request{Dir: t.TempDir(), Source: "src"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
