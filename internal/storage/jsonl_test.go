package storage

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inferbatch/inferbatch/internal/core"
)

func TestDecodeRecordsSkipsMalformedLines(t *testing.T) {
	observed, logs := observer.New(zap.WarnLevel)
	logger := zap.New(observed)

	data := []byte(strings.Join([]string{
		`{"recordId":"a","modelInput":{"x":1}}`,
		`{not json`,
		`{"recordId":"b","modelInput":{"x":2}}`,
		`{"recordId":"c","modelInput":{"x":3}}`,
	}, "\n"))

	records, skipped, err := DecodeRecords(data, logger)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, 1, skipped)
	require.Equal(t, "a", records[0].ID())
	require.Equal(t, "b", records[1].ID())
	require.Equal(t, "c", records[2].ID())

	warnings := logs.FilterMessage("skipping malformed input line").All()
	require.Len(t, warnings, 1)
	require.Equal(t, int64(2), warnings[0].ContextMap()["line"])
}

func TestDecodeRecordsIgnoresBlankLines(t *testing.T) {
	data := []byte("{\"recordId\":\"a\"}\n\n{\"recordId\":\"b\"}\n")
	records, skipped, err := DecodeRecords(data, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Zero(t, skipped)
}

func TestDecodeRecordsFailsOnOversizedLine(t *testing.T) {
	huge := `{"recordId":"big","modelInput":{"prompt":"` +
		strings.Repeat("a", maxLineSize) + `"}}`
	data := []byte(strings.Join([]string{
		`{"recordId":"a","modelInput":{"x":1}}`,
		huge,
		`{"recordId":"b","modelInput":{"x":2}}`,
	}, "\n"))

	_, _, err := DecodeRecords(data, nil)
	require.ErrorIs(t, err, bufio.ErrTooLong)
	require.ErrorContains(t, err, "line 2")
}

func TestEncodeRecordsOneObjectPerLine(t *testing.T) {
	results := []core.AnnotatedRecord{
		core.Annotate(map[string]any{"x": 1}, map[string]any{"y": 2}, "a"),
		core.AnnotateError(map[string]any{"x": 2}, errEncode("boom"), "b"),
	}

	data, err := EncodeRecords(results)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"recordId":"a"`)
	require.Contains(t, lines[1], `"error":"boom"`)
}

func TestEncodeRecordsPreservesNonASCII(t *testing.T) {
	results := []core.AnnotatedRecord{
		core.Annotate(map[string]any{"text": "商品"}, map[string]any{"text": "привет"}, "a"),
	}

	data, err := EncodeRecords(results)
	require.NoError(t, err)
	require.Contains(t, string(data), "商品")
	require.Contains(t, string(data), "привет")
	require.NotContains(t, string(data), `\u`)
}

type errEncode string

func (e errEncode) Error() string { return string(e) }
