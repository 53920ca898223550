package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLHistoryMissingFileIsEmpty(t *testing.T) {
	h := NewJSONLHistory(filepath.Join(t.TempDir(), HistoryFileName))

	records, err := h.ReadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestJSONLHistoryAppendGrowsByOne(t *testing.T) {
	ctx := context.Background()
	h := NewJSONLHistory(filepath.Join(t.TempDir(), HistoryFileName))
	require.NoError(t, h.Append(ctx, NewRecord(1, 2)))

	before, err := h.ReadAll(ctx)
	require.NoError(t, err)

	rec := NewRecord(7.5, 12.25)
	require.NoError(t, h.Append(ctx, rec))

	after, err := h.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, rec, after[len(after)-1])
}

func TestJSONLHistoryKeepsAppendOrder(t *testing.T) {
	ctx := context.Background()
	h := NewJSONLHistory(filepath.Join(t.TempDir(), HistoryFileName))
	for _, x := range []float64{1.0, 2.0, 3.0} {
		require.NoError(t, h.Append(ctx, NewRecord(x, x*10)))
	}

	records, err := h.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, want := range []float64{1.0, 2.0, 3.0} {
		assert.Equal(t, want, records[i].Input.WindOrigin)
	}
}

func TestJSONLHistoryLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFileName)
	h := NewJSONLHistory(path)
	rec := Record{ID: "abc", Input: Input{WindOrigin: 5}, Output: 1.5}
	require.NoError(t, h.Append(context.Background(), rec))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"abc","entrada":{"wind_origin":5},"saida":1.5}`+"\n", string(raw))
}

func TestJSONLHistoryCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFileName)
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"a\"}\nnot json\n"), 0o644))

	_, err := NewJSONLHistory(path).ReadAll(context.Background())
	assert.ErrorContains(t, err, "history line 2")
}

func TestNewRecordID(t *testing.T) {
	a, b := NewRecord(1, 1), NewRecord(1, 1)
	assert.Len(t, a.ID, 32)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotContains(t, a.ID, "-")
}
