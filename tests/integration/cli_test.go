// CLI integration tests for peregrin: storage lifecycle, stored config,
// queue control, and manual item management.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the peregrin binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "peregrin-test-*")
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}
	binPath := filepath.Join(tmpDir, "peregrin")
	SetPeregrinBin(binPath)

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/peregrin")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		SetBuildErr(&BuildError{
			Err:    err,
			Output: string(output),
		})
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)

	os.Exit(code)
}

func Test1_Initialize(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunPeregrin("init")
	if result.Stdout == "" {
		t.Error("expected init output message")
	}

	if _, err := os.Stat(env.DataDir); os.IsNotExist(err) {
		t.Error("data directory not created")
	}
	dbFile := filepath.Join(env.DataDir, "peregrin.db")
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		t.Error("peregrin.db not created")
	}

	// Init starts the run queue.
	result = env.MustRunPeregrin("queue", "show")
	if !strings.Contains(result.Stdout, "running") {
		t.Errorf("expected running queue after init, got %q", result.Stdout)
	}
}

func Test2_StoredConfigRoundTrip(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPeregrin("init")

	env.MustRunPeregrin("config", "set", "searchDepth", "3")
	result := env.MustRunPeregrin("config", "get", "searchDepth")
	if strings.TrimSpace(result.Stdout) != "3" {
		t.Errorf("expected stored value 3, got %q", result.Stdout)
	}

	// Unknown names exit non-zero.
	result = env.RunPeregrin("config", "get", "noSuchName")
	if result.ExitCode == 0 {
		t.Error("expected non-zero exit for unknown config name")
	}

	// Changes land in the audit trail.
	env.MustRunPeregrin("config", "set", "searchDepth", "5")
	result = env.MustRunPeregrin("status", "--limit", "10")
	if !strings.Contains(result.Stdout, "CONFIG CHANGE") {
		t.Errorf("expected CONFIG CHANGE status line, got %q", result.Stdout)
	}
	if !strings.Contains(result.Stdout, "3 -> 5") {
		t.Errorf("expected old -> new values in status, got %q", result.Stdout)
	}
}

func Test3_QueueStopStart(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPeregrin("init")

	env.MustRunPeregrin("queue", "stop")
	result := env.MustRunPeregrin("queue", "show")
	if !strings.Contains(result.Stdout, "stopped") {
		t.Errorf("expected stopped queue, got %q", result.Stdout)
	}

	env.MustRunPeregrin("queue", "start")
	result = env.MustRunPeregrin("queue", "show")
	if !strings.Contains(result.Stdout, "running") {
		t.Errorf("expected running queue, got %q", result.Stdout)
	}
}

func Test4_ItemAddAndInspect(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPeregrin("init")

	result := env.MustRunPeregrin("item", "add", "https://example.com/page", "--tag", "download")
	itemID := strings.TrimSpace(result.Stdout)
	if itemID == "" {
		t.Fatal("expected item ID on stdout")
	}

	// Adding the same URI again returns the same ID.
	result = env.MustRunPeregrin("item", "add", "https://example.com/page")
	if strings.TrimSpace(result.Stdout) != itemID {
		t.Errorf("expected identical ID for identical URI, got %q then %q",
			itemID, strings.TrimSpace(result.Stdout))
	}

	// Attributes show up in insertion order via item data.
	type datum struct {
		Key   string
		Value string
		Seq   int
	}
	env.MustRunPeregrin("config", "set", "probe", "1") // unrelated write, must not leak into item data
	result = env.MustRunPeregrin("--json", "item", "data", itemID)
	data := ParseJSON[[]datum](t, result.Stdout)
	if len(data) != 0 {
		t.Errorf("expected no attributes on a bare item, got %v", data)
	}
}
