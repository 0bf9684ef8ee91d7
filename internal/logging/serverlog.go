// This file contains utilities for reading the sidecar's server.log,
// the stream-tagged append-only file the supervisor's drains write to.
// The yashell logs command uses these to show and export sidecar output.
package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ServerLogName is the fixed name of the sidecar output file.
const ServerLogName = "server.log"

// ServerLogEntry is one parsed line of server.log.
type ServerLogEntry struct {
	// Stream is the tag the drain recorded: "STDOUT", "STDERR", or
	// "SPAWN" for the startup line.
	Stream string `json:"stream"`

	// Text is the line content after the tag.
	Text string `json:"text"`
}

// ServerLogFilter defines criteria for filtering server log entries.
// Multiple criteria combine with AND logic.
type ServerLogFilter struct {
	// Stream filters to entries with this tag. Empty means no filtering.
	Stream string

	// Contains filters to entries whose text contains this substring.
	Contains string

	// Tail keeps only the last N matching entries. Zero means all.
	Tail int
}

// ReadServerLog reads and parses all entries from the server.log in the
// given log directory. Untagged lines (for example partial lines written
// during a hard kill) are kept with an empty stream tag.
func ReadServerLog(logDir string) ([]ServerLogEntry, error) {
	logPath := filepath.Join(logDir, ServerLogName)

	file, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no server log found in %s: %w", logDir, err)
		}
		return nil, fmt.Errorf("failed to open server log: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []ServerLogEntry
	scanner := bufio.NewScanner(file)

	// Sidecar output lines can be long (stack traces, JSON payloads).
	const maxScanTokenSize = 1024 * 1024 // 1MB
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, parseServerLogLine(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading server log: %w", err)
	}

	return entries, nil
}

// parseServerLogLine splits a "[TAG] text" line into its entry.
func parseServerLogLine(line string) ServerLogEntry {
	if strings.HasPrefix(line, "[") {
		if end := strings.Index(line, "] "); end > 0 {
			return ServerLogEntry{
				Stream: line[1:end],
				Text:   line[end+2:],
			}
		}
	}
	return ServerLogEntry{Text: line}
}

// FilterServerLog filters entries based on the provided criteria.
func FilterServerLog(entries []ServerLogEntry, filter ServerLogFilter) []ServerLogEntry {
	filtered := entries
	if filter.Stream != "" || filter.Contains != "" {
		filtered = nil
		for _, entry := range entries {
			if filter.Stream != "" && !strings.EqualFold(entry.Stream, filter.Stream) {
				continue
			}
			if filter.Contains != "" && !strings.Contains(entry.Text, filter.Contains) {
				continue
			}
			filtered = append(filtered, entry)
		}
	}

	if filter.Tail > 0 && len(filtered) > filter.Tail {
		filtered = filtered[len(filtered)-filter.Tail:]
	}
	return filtered
}

// ExportServerLog writes entries to outputPath in the given format.
// Supported formats: "json", "text", "csv".
func ExportServerLog(entries []ServerLogEntry, outputPath string, format string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteServerLog(file, entries, format)
}

// WriteServerLog writes entries to w in the given format.
func WriteServerLog(w *os.File, entries []ServerLogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "text":
		for _, entry := range entries {
			var line string
			if entry.Stream != "" {
				line = fmt.Sprintf("[%s] %s\n", entry.Stream, entry.Text)
			} else {
				line = entry.Text + "\n"
			}
			if _, err := w.WriteString(line); err != nil {
				return fmt.Errorf("failed to write text entry: %w", err)
			}
		}
		return nil
	case "csv":
		writer := csv.NewWriter(w)
		defer writer.Flush()

		if err := writer.Write([]string{"stream", "text"}); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, entry := range entries {
			if err := writer.Write([]string{entry.Stream, entry.Text}); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}
