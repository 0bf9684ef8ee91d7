package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeServerLog(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, ServerLogName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestReadServerLog(t *testing.T) {
	t.Run("parses tagged lines", func(t *testing.T) {
		dir := writeServerLog(t,
			"[SPAWN] pid=123 path=/opt/core/index.js",
			"[STDOUT] server listening on :8080",
			"[STDERR] deprecation warning",
		)

		entries, err := ReadServerLog(dir)
		if err != nil {
			t.Fatalf("ReadServerLog failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}

		if entries[0].Stream != "SPAWN" || !strings.HasPrefix(entries[0].Text, "pid=123") {
			t.Errorf("entry 0 = %+v", entries[0])
		}
		if entries[1].Stream != "STDOUT" || entries[1].Text != "server listening on :8080" {
			t.Errorf("entry 1 = %+v", entries[1])
		}
		if entries[2].Stream != "STDERR" {
			t.Errorf("entry 2 = %+v", entries[2])
		}
	})

	t.Run("keeps untagged lines with empty stream", func(t *testing.T) {
		dir := writeServerLog(t, "partial line from a hard kill")

		entries, err := ReadServerLog(dir)
		if err != nil {
			t.Fatalf("ReadServerLog failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Stream != "" {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("skips blank lines", func(t *testing.T) {
		dir := writeServerLog(t, "[STDOUT] one", "", "[STDOUT] two")

		entries, err := ReadServerLog(dir)
		if err != nil {
			t.Fatalf("ReadServerLog failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("got %d entries, want 2", len(entries))
		}
	})

	t.Run("errors when no log exists", func(t *testing.T) {
		if _, err := ReadServerLog(t.TempDir()); err == nil {
			t.Error("expected error for missing server.log")
		}
	})
}

func TestFilterServerLog(t *testing.T) {
	entries := []ServerLogEntry{
		{Stream: "SPAWN", Text: "pid=1 path=/x"},
		{Stream: "STDOUT", Text: "ready"},
		{Stream: "STDERR", Text: "warning: ready but slow"},
		{Stream: "STDOUT", Text: "request handled"},
	}

	t.Run("by stream", func(t *testing.T) {
		got := FilterServerLog(entries, ServerLogFilter{Stream: "stdout"})
		if len(got) != 2 {
			t.Fatalf("got %d entries, want 2", len(got))
		}
		for _, e := range got {
			if e.Stream != "STDOUT" {
				t.Errorf("unexpected entry %+v", e)
			}
		}
	})

	t.Run("by substring", func(t *testing.T) {
		got := FilterServerLog(entries, ServerLogFilter{Contains: "ready"})
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
	})

	t.Run("combined with AND logic", func(t *testing.T) {
		got := FilterServerLog(entries, ServerLogFilter{Stream: "STDERR", Contains: "ready"})
		if len(got) != 1 || got[0].Stream != "STDERR" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("tail keeps the last N", func(t *testing.T) {
		got := FilterServerLog(entries, ServerLogFilter{Tail: 2})
		if len(got) != 2 || got[1].Text != "request handled" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("empty filter returns everything", func(t *testing.T) {
		if got := FilterServerLog(entries, ServerLogFilter{}); len(got) != len(entries) {
			t.Errorf("got %d entries, want %d", len(got), len(entries))
		}
	})
}

func TestExportServerLog(t *testing.T) {
	entries := []ServerLogEntry{
		{Stream: "STDOUT", Text: "one"},
		{Stream: "STDERR", Text: "two"},
	}

	t.Run("json", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.json")
		if err := ExportServerLog(entries, out, "json"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		var got []ServerLogEntry
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("export is not valid JSON: %v", err)
		}
		if len(got) != 2 || got[0].Text != "one" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("text round-trips the original format", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.log")
		if err := ExportServerLog(entries, out, "text"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		want := "[STDOUT] one\n[STDERR] two\n"
		if string(data) != want {
			t.Errorf("export = %q, want %q", string(data), want)
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.xml")
		if err := ExportServerLog(entries, out, "xml"); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}
