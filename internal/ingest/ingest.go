package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ecomlens/ecomlens/internal/events"
)

// Batch is the result of loading one or more event files.
type Batch struct {
	Events  []events.RawEvent
	Dropped int
	Files   []string
}

// Expand resolves glob patterns (including ** recursion) into a sorted,
// deduplicated list of file paths. A literal path with no glob
// metacharacters must exist.
func Expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("input file %s: %w", pattern, err)
			}
			if !seen[pattern] {
				seen[pattern] = true
				paths = append(paths, pattern)
			}
			continue
		}

		base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
		matches, err := doublestar.Glob(os.DirFS(base), rest)
		if err != nil {
			return nil, fmt.Errorf("expanding pattern %s: %w", pattern, err)
		}
		for _, m := range matches {
			full := filepath.Join(base, m)
			if !seen[full] {
				seen[full] = true
				paths = append(paths, full)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Load expands the given patterns and loads every matched file. Events
// missing a session id, event name, or timestamp are dropped and
// counted rather than failing the batch.
func Load(patterns []string) (*Batch, error) {
	paths, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files matched %v", patterns)
	}

	batch := &Batch{Files: paths}
	for _, path := range paths {
		evs, dropped, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		batch.Events = append(batch.Events, evs...)
		batch.Dropped += dropped
	}
	return batch, nil
}

// LoadFile reads one event file, choosing the decoder by extension:
// .csv is parsed as CSV with a header row, .jsonl and .ndjson as
// newline-delimited JSON, and .json as either a JSON array or
// newline-delimited JSON.
func LoadFile(path string) ([]events.RawEvent, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return decodeCSV(f, path)
	case ".jsonl", ".ndjson":
		return decodeNDJSON(f, path)
	case ".json":
		return decodeJSON(f, path)
	default:
		return nil, 0, fmt.Errorf("unsupported input format %s", path)
	}
}

func decodeJSON(r io.Reader, path string) ([]events.RawEvent, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []events.RawEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, 0, fmt.Errorf("parsing %s: %w", path, err)
		}
		return filterComplete(raw)
	}
	return decodeNDJSON(bytes.NewReader(data), path)
}

func decodeNDJSON(r io.Reader, path string) ([]events.RawEvent, int, error) {
	var (
		result  []events.RawEvent
		dropped int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var ev events.RawEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, 0, fmt.Errorf("parsing %s line %d: %w", path, line, err)
		}
		if !complete(ev) {
			dropped++
			continue
		}
		result = append(result, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return result, dropped, nil
}

func decodeCSV(r io.Reader, path string) ([]events.RawEvent, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s header: %w", path, err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		result  []events.RawEvent
		dropped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", path, err)
		}

		ev := events.RawEvent{
			SessionID:    field(record, "session_id"),
			EventName:    field(record, "event_name"),
			ItemID:       field(record, "item_id"),
			ItemName:     field(record, "item_name"),
			ItemCategory: field(record, "item_category"),
			PageLocation: field(record, "page_location"),
			PageTitle:    field(record, "page_title"),
			SearchTerm:   field(record, "search_term"),
			UserID:       field(record, "user_id"),
		}
		if ts := field(record, "timestamp"); ts != "" {
			ev.Timestamp = ts
		}
		if v := field(record, "price"); v != "" {
			if p, err := strconv.ParseFloat(v, 64); err == nil {
				ev.Price = p
			}
		}
		if v := field(record, "value"); v != "" {
			if p, err := strconv.ParseFloat(v, 64); err == nil {
				ev.Value = p
			}
		}

		if !complete(ev) {
			dropped++
			continue
		}
		result = append(result, ev)
	}
	return result, dropped, nil
}

func filterComplete(raw []events.RawEvent) ([]events.RawEvent, int, error) {
	var (
		result  []events.RawEvent
		dropped int
	)
	for _, ev := range raw {
		if !complete(ev) {
			dropped++
			continue
		}
		result = append(result, ev)
	}
	return result, dropped, nil
}

// complete reports whether the event carries the three fields every
// downstream stage depends on.
func complete(ev events.RawEvent) bool {
	if ev.SessionID == "" || ev.EventName == "" || ev.Timestamp == nil {
		return false
	}
	if s, ok := ev.Timestamp.(string); ok && s == "" {
		return false
	}
	return true
}
