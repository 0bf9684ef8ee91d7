package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
)

func TestOpenSink(t *testing.T) {
	t.Run("creates the log directory recursively", func(t *testing.T) {
		logDir := filepath.Join(t.TempDir(), "nested", "logs")

		sink, err := OpenSink(logDir)
		if err != nil {
			t.Fatalf("OpenSink failed: %v", err)
		}
		defer sink.Close()

		if _, err := os.Stat(filepath.Join(logDir, "server.log")); err != nil {
			t.Errorf("server.log was not created: %v", err)
		}
	})

	t.Run("appends across opens", func(t *testing.T) {
		logDir := t.TempDir()

		first, err := OpenSink(logDir)
		if err != nil {
			t.Fatalf("OpenSink failed: %v", err)
		}
		if err := first.WriteLine(StreamStdout, "one"); err != nil {
			t.Fatal(err)
		}
		if err := first.Close(); err != nil {
			t.Fatal(err)
		}

		second, err := OpenSink(logDir)
		if err != nil {
			t.Fatalf("OpenSink failed: %v", err)
		}
		if err := second.WriteLine(StreamStderr, "two"); err != nil {
			t.Fatal(err)
		}
		if err := second.Close(); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(filepath.Join(logDir, "server.log"))
		if err != nil {
			t.Fatal(err)
		}
		want := "[STDOUT] one\n[STDERR] two\n"
		if string(data) != want {
			t.Errorf("log content = %q, want %q", string(data), want)
		}
	})
}

func TestSinkWriteStartup(t *testing.T) {
	logDir := t.TempDir()
	sink, err := OpenSink(logDir)
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	defer sink.Close()

	if err := sink.WriteStartup(4242, "/opt/app/index.js"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := "[SPAWN] pid=4242 path=/opt/app/index.js\n"
	if string(data) != want {
		t.Errorf("startup line = %q, want %q", string(data), want)
	}
}

func TestSinkConcurrentWriters(t *testing.T) {
	logDir := t.TempDir()
	sink, err := OpenSink(logDir)
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	defer sink.Close()

	const linesPerStream = 200
	stdout := sink.StreamWriter(StreamStdout)
	stderr := sink.StreamWriter(StreamStderr)

	var wg sync.WaitGroup
	wg.Add(2)
	write := func(w *StreamWriter) {
		defer wg.Done()
		for i := 0; i < linesPerStream; i++ {
			if err := w.WriteLine(fmt.Sprintf("line-%d", i)); err != nil {
				t.Errorf("WriteLine failed: %v", err)
				return
			}
		}
	}
	go write(stdout)
	go write(stderr)
	wg.Wait()

	data, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatal(err)
	}

	// Each write must land as one complete tagged line, never interleaved.
	wellFormed := regexp.MustCompile(`^\[(STDOUT|STDERR)\] line-\d+$`)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2*linesPerStream {
		t.Fatalf("got %d lines, want %d", len(lines), 2*linesPerStream)
	}
	for i, line := range lines {
		if !wellFormed.MatchString(line) {
			t.Errorf("line %d malformed: %q", i, line)
		}
	}
}

func TestSinkClosedWrites(t *testing.T) {
	sink, err := OpenSink(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	if err := sink.WriteLine(StreamStdout, "late"); err == nil {
		t.Error("WriteLine after Close should fail")
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
