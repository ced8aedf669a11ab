package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/graph"
	"github.com/matzehuels/selgraph/pkg/selection"
	"github.com/matzehuels/selgraph/pkg/session"
)

const chainGraph = `{
  "nodes": [{"id": "A"}, {"id": "B"}, {"id": "C"}],
  "edges": [{"from": "A", "to": "B"}, {"from": "B", "to": "C"}]
}`

// setupEnv points every XDG directory at a temp dir and writes the chain
// graph, returning its path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	path := filepath.Join(dir, "chain.json")
	if err := os.WriteFile(path, []byte(chainGraph), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"select", "render", "browse", "serve", "session", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}

func TestSelectText(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "select", path, "A", "--add", "C", "--remove", "A")
	if err != nil {
		t.Fatalf("select: %v\n%s", err, out)
	}
	for _, want := range []string{"select_only_nodes A", "add C", "remove A", "frontier", "selected", "[C]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSelectJSON(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "select", path, "A", "--add", "A", "--json")
	if err != nil {
		t.Fatalf("select: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d JSON lines, want 2:\n%s", len(lines), out)
	}

	var first, second struct {
		Op      string             `json:"op"`
		Changes graph.ChangeSetDoc `json:"changes"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Op != selection.OpSelectOnlyNodes || len(first.Changes.Nodes) != 2 || len(first.Changes.Edges) != 1 {
		t.Errorf("first step = %+v", first)
	}
	if first.Changes.Nodes[1].ID != "B" || first.Changes.Nodes[1].To != selection.Frontier {
		t.Errorf("B change = %+v", first.Changes.Nodes[1])
	}

	// Re-adding a selected node is a no-op.
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second.Op != "add" || len(second.Changes.Nodes) != 0 || len(second.Changes.Edges) != 0 {
		t.Errorf("second step = %+v", second)
	}
}

func TestSelectMissingGraph(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "select", filepath.Join(t.TempDir(), "nope.json"), "A")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestSelectInvalidID(t *testing.T) {
	path := setupEnv(t)
	_, err := execute(t, "select", path, "--add", "")
	if !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("err = %v, want INVALID_ID", err)
	}
}

func sessionIDFrom(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "session" {
			return fields[1]
		}
	}
	t.Fatalf("no session id in output:\n%s", out)
	return ""
}

func TestSessionLifecycle(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "select", path, "A", "--save")
	if err != nil {
		t.Fatalf("select --save: %v\n%s", err, out)
	}
	id := sessionIDFrom(t, out)

	out, err = execute(t, "select", path, "--session", id, "--add", "C", "--json", "--states")
	if err != nil {
		t.Fatalf("select --session: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var state graph.StateDoc
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &state); err != nil {
		t.Fatal(err)
	}
	if strings.Join(state.Selected, ",") != "A,C" {
		t.Errorf("selected after restore+add = %v, want [A C]", state.Selected)
	}
	if state.Edges["A->B"] != selection.Frontier {
		t.Errorf("edge A->B = %s, want frontier", state.Edges["A->B"])
	}

	out, err = execute(t, "session", "show", id)
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	if !strings.Contains(out, "A C") {
		t.Errorf("session show missing selection:\n%s", out)
	}

	if _, err := execute(t, "session", "delete", id); err != nil {
		t.Fatalf("session delete: %v", err)
	}
	if _, err := execute(t, "session", "show", id); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("show after delete: err = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestRenderDOT(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "render", path, "--select", "B", "--format", "dot", "-o", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("output is not DOT:\n%s", out)
	}
	if !strings.Contains(out, `"B" [id="node-B"`) {
		t.Errorf("DOT missing node B:\n%s", out)
	}
}

func TestRenderBadFormat(t *testing.T) {
	path := setupEnv(t)
	_, err := execute(t, "render", path, "--format", "gif")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestConfigFlag(t *testing.T) {
	path := setupEnv(t)
	cfg := filepath.Join(t.TempDir(), "selgraph.toml")
	if err := os.WriteFile(cfg, []byte("[session]\nbackend = \"etcd\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "--config", cfg, "select", path, "A")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestCachePath(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), "selgraph"); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestServeRequiresGraph(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "serve")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestRestoreSession(t *testing.T) {
	path := setupEnv(t)
	g, hash, err := readGraph(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		hash     string
		wantWarn bool
	}{
		{"same graph", hash, false},
		{"different graph", "other", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := withLogger(context.Background(), newLogger(&buf, log.InfoLevel))

			sess := session.New(tt.hash, time.Hour)
			sess.Selected = []string{"B"}
			tr := selection.New(g)
			restoreSession(ctx, tr, sess, hash)

			if !tr.IsNodeSelected("B") {
				t.Error("selection not restored")
			}
			if got := strings.Contains(buf.String(), "different graph"); got != tt.wantWarn {
				t.Errorf("warned = %v, want %v (log %q)", got, tt.wantWarn, buf.String())
			}
		})
	}
}
