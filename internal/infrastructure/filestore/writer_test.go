package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, "data")
	w.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

	path, err := w.Write(map[string]any{"timestamp": "x", "data": map[string]any{}})
	assert.Equal(t, err, nil)
	assert.Equal(t, filepath.Base(path), "data_20240309_140507.json")

	raw, err := os.ReadFile(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.Contains(string(raw), "\n  \"data\""), true)

	var decoded map[string]any
	assert.Equal(t, json.Unmarshal(raw, &decoded), nil)
	assert.Equal(t, decoded["timestamp"], "x")

	second, err := w.Write([]int{1, 2})
	assert.Equal(t, err, nil)
	assert.Equal(t, filepath.Base(second), "data_20240309_140507_1.json")
}

func TestWriterEncodeError(t *testing.T) {
	t.Parallel()

	w := NewWriter(t.TempDir(), "")
	_, err := w.Write(map[string]any{"bad": make(chan int)})
	assert.NotEqual(t, err, nil)
}
