package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"mgdl/internal/config"
	"mgdl/internal/testsupport"
)

const fooSeriesHTML = `<html><body>
<h1>Foo</h1>
<ul>
  <li><strong>Author(s): </strong><a href="/search?author=A">Alice</a></li>
  <li><strong>Status: </strong><a href="/search?status=Ongoing">Ongoing</a></li>
</ul>
</body></html>`

// galleryStub emits two pages per chapter for chapters 1..N, where N is read
// from count, honoring --chapter-filter "<after> < chapter". Each invocation
// appends its arguments to argsLog.
const galleryStub = `#!/bin/sh
echo "$@" >> %q
dir=""
after=0
while [ $# -gt 0 ]; do
  case "$1" in
    -D) dir="$2"; shift 2 ;;
    --chapter-filter) after="${2%%%% *}"; shift 2 ;;
    --version) echo "1.0-stub"; exit 0 ;;
    *) shift ;;
  esac
done
mkdir -p "$dir"
count=$(cat %q)
ch=1
while [ "$ch" -le "$count" ]; do
  if [ "$ch" -gt "$after" ]; then
    for p in 1 2; do
      file="$dir/foo_c$(printf '%%03d' "$ch")_$p.jpg"
      echo "page" > "$file"
      echo "$file"
    done
  fi
  ch=$((ch + 1))
done
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	server     *httptest.Server
	chapters   *atomic.Int32
	countPath  string
	argsLog    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("MGDL_MANGA_DIR", "")
	t.Setenv("MGDL_PROVIDER_URL", "")
	t.Setenv("HOME", t.TempDir())

	env := &cliTestEnv{chapters: new(atomic.Int32)}
	env.chapters.Store(2)

	mux := http.NewServeMux()
	mux.HandleFunc("/series/FOO1/foo", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, fooSeriesHTML)
	})
	mux.HandleFunc("/series/FOO1/full-chapter-list", func(w http.ResponseWriter, _ *http.Request) {
		var b strings.Builder
		for i := env.chapters.Load(); i >= 1; i-- {
			fmt.Fprintf(&b, `<a href="https://example.test/chapters/CH%d"><span>Chapter %d</span></a>`, i, i)
		}
		fmt.Fprint(w, b.String())
	})
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithProviderURL(env.server.URL))
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)

	env.countPath = filepath.Join(base, "chapter-count")
	env.argsLog = filepath.Join(base, "gallery-dl.args")
	env.setChapters(t, 2)
	stub := filepath.Join(base, "bin", "gallery-dl")
	testsupport.WriteFile(t, stub, fmt.Sprintf(galleryStub, env.argsLog, env.countPath))
	if err := os.Chmod(stub, 0o755); err != nil {
		t.Fatalf("chmod stub: %v", err)
	}
	cfg.Fetch.Binary = stub

	env.cfg = cfg
	env.configPath = filepath.Join(base, "config.toml")
	writeTestConfig(t, env.configPath, cfg)
	return env
}

// setChapters changes how many chapters both the provider and the fetch stub report.
func (e *cliTestEnv) setChapters(t *testing.T, n int) {
	t.Helper()
	e.chapters.Store(int32(n))
	testsupport.WriteFile(t, e.countPath, strconv.Itoa(n))
}

func (e *cliTestEnv) fooURL() string {
	return e.server.URL + "/series/FOO1/foo"
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := runCLI(t, args, e.configPath)
	return stdout, err
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("encode config: %v", err)
	}
	testsupport.WriteFile(t, path, buf.String())
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
