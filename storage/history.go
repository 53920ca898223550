package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
)

// HistoryFileName is the fixed name of the JSON lines log inside the storage directory.
const HistoryFileName = "history.jsonl"

// Input is the request payload stored with each record.
type Input struct {
	WindOrigin float64 `json:"wind_origin"`
}

// Record is one immutable prediction entry.
type Record struct {
	ID     string  `json:"id"`
	Input  Input   `json:"entrada"`
	Output float64 `json:"saida"`
}

// NewRecord pairs an input with its prediction under a fresh random id.
func NewRecord(windOrigin, output float64) Record {
	return Record{
		ID:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		Input:  Input{WindOrigin: windOrigin},
		Output: output,
	}
}

// History is an append-only prediction log.
type History interface {
	Append(ctx context.Context, rec Record) error
	ReadAll(ctx context.Context) ([]Record, error)
	Close() error
}

// JSONLHistory stores one JSON object per line. Appends are not locked; a
// single writer process is assumed.
type JSONLHistory struct {
	path string
}

// NewJSONLHistory returns a log backed by path. The file is created on the
// first Append.
func NewJSONLHistory(path string) *JSONLHistory {
	return &JSONLHistory{path: path}
}

// Append writes rec as one line at the end of the file.
func (h *JSONLHistory) Append(_ context.Context, rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append history: %w", err)
	}
	return f.Close()
}

// ReadAll loads the whole log in file order. A missing file is an empty log.
func (h *JSONLHistory) ReadAll(_ context.Context) ([]Record, error) {
	payload, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	records := make([]Record, 0)
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), len(payload)+1)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("history line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return records, nil
}

// Close is a no-op; every Append opens and closes the file.
func (h *JSONLHistory) Close() error { return nil }
