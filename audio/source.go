// Package audio holds the caller-owned audio source and the transient
// playable handles a waveform controller derives from it.
package audio

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path/filepath"
)

const defaultContentType = "application/octet-stream"

// Source is an audio file supplied by the caller. Implementations must allow
// Open to be called more than once.
type Source interface {
	// Name is the file name sent to the backend.
	Name() string
	// ContentType is the MIME type sent with the file part.
	ContentType() string
	// Open returns a fresh reader over the whole file.
	Open() (io.ReadCloser, error)
}

// Locator is implemented by sources backed by a file on disk.
type Locator interface {
	Path() string
}

type fileSource struct {
	path        string
	contentType string
}

// FileSource returns a Source backed by a file on disk. The content type is
// guessed from the extension.
func FileSource(path string) Source {
	return &fileSource{path: path, contentType: contentTypeFor(path)}
}

func (f *fileSource) Name() string                 { return filepath.Base(f.path) }
func (f *fileSource) ContentType() string          { return f.contentType }
func (f *fileSource) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// Path returns the file path.
func (f *fileSource) Path() string { return f.path }

type bytesSource struct {
	name        string
	contentType string
	data        []byte
}

// BytesSource returns a Source over an in-memory file.
func BytesSource(name string, data []byte) Source {
	return &bytesSource{name: name, contentType: contentTypeFor(name), data: data}
}

func (b *bytesSource) Name() string        { return b.name }
func (b *bytesSource) ContentType() string { return b.contentType }
func (b *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// ReadAll reads the whole source into memory.
func ReadAll(src Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".webm": "audio/webm",
}

func contentTypeFor(name string) string {
	ext := filepath.Ext(name)
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return defaultContentType
}
