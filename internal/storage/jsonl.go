package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/core"
)

// maxLineSize bounds a single input line. Model inputs with large prompts
// routinely exceed bufio's 64K default.
const maxLineSize = 16 * 1024 * 1024

// DecodeRecords parses one JSON object per line. Malformed lines are skipped
// with a logged warning and counted, never fatal; blank lines are ignored.
// A scan failure (a line beyond maxLineSize) is fatal: the scanner cannot
// resume past it, and dropping the remaining records would silently shrink
// the output file.
func DecodeRecords(data []byte, logger *zap.Logger) ([]core.Record, int, error) {
	records := make([]core.Record, 0)
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}

		var rec core.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			skipped++
			if logger != nil {
				logger.Warn("skipping malformed input line",
					zap.Int("line", line),
					zap.Error(err))
			}
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scan input at line %d: %w", line+1, err)
	}

	return records, skipped, nil
}

// EncodeRecords renders one JSON object per line in input order. HTML
// escaping is off so non-ASCII text passes through unmangled.
func EncodeRecords(results []core.AnnotatedRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, result := range results {
		if err := enc.Encode(result); err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
