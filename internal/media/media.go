// Package media writes decoded image payloads to disk and renders audio previews.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	imagePrefix    = "venice-"
	imageExtension = ".png"

	// audioPreviewChars is the number of base64 characters shown inline.
	audioPreviewChars = 50

	// maxNameAttempts bounds the search for an unused timestamp filename.
	maxNameAttempts = 1000
)

// Materializer saves generated images under a fixed directory.
// Existing files are never overwritten.
type Materializer struct {
	dir string
	now func() time.Time
}

// NewMaterializer creates a Materializer writing into dir.
// The directory is created on first write.
func NewMaterializer(dir string) *Materializer {
	return &Materializer{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (m *Materializer) Dir() string {
	return m.dir
}

// SaveImage decodes a base64 image and writes it to a new
// venice-<unix-millis>.png file, returning its path.
func (m *Materializer) SaveImage(b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("failed to decode image data: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory %s: %w", m.dir, err)
	}

	millis := m.now().UnixMilli()
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		path := filepath.Join(m.dir, imagePrefix+strconv.FormatInt(millis+int64(attempt), 10)+imageExtension)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create image file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write image file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to write image file: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free image filename in %s", m.dir)
}

// AudioPreview base64-encodes audio and returns a truncated data URI with the
// approximate encoded size in kilobytes.
func AudioPreview(audio []byte) string {
	encoded := base64.StdEncoding.EncodeToString(audio)
	prefix := encoded
	if len(prefix) > audioPreviewChars {
		prefix = prefix[:audioPreviewChars]
	}
	kb := int(math.Round(float64(len(encoded)) / 1024))
	return fmt.Sprintf("Audio generated (%dKB MP3): data:audio/mp3;base64,%s...", kb, prefix)
}
