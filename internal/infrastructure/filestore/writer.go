package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"FeedCollector/internal/ports"
)

const timestampLayout = "20060102_150405"

// Writer stores run payloads as indented JSON files named
// <prefix>_<YYYYMMDD_HHMMSS>.json inside dir.
type Writer struct {
	dir    string
	prefix string
	now    func() time.Time
}

var _ ports.ArtifactWriter = (*Writer)(nil)

// NewWriter returns a writer rooted at dir.
func NewWriter(dir, prefix string) *Writer {
	if dir == "" {
		dir = "."
	}
	if prefix == "" {
		prefix = "data"
	}
	return &Writer{dir: dir, prefix: prefix, now: time.Now}
}

// Write encodes payload and returns the path of the new file. Concurrent
// writers sharing dir are serialized through a lock file.
func (w *Writer) Write(payload any) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(filepath.Join(w.dir, "."+w.prefix+".lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock output dir: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	data = append(data, '\n')

	path, err := w.nextPath()
	if err != nil {
		return "", err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return path, nil
}

// nextPath picks a file name that does not exist yet; runs finishing within
// the same second get a numeric suffix.
func (w *Writer) nextPath() (string, error) {
	base := fmt.Sprintf("%s_%s", w.prefix, w.now().Format(timestampLayout))
	path := filepath.Join(w.dir, base+".json")
	for i := 1; ; i++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		path = filepath.Join(w.dir, fmt.Sprintf("%s_%d.json", base, i))
	}
}
