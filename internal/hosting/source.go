package hosting

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// AssetSource is a single binary payload to upload. Exactly one source per
// request; there are no multi-file batches.
type AssetSource interface {
	// Open returns a fresh reader over the payload. The encoder closes it.
	Open() (io.ReadCloser, error)
	// Name is the filename reported in the multipart part.
	Name() string
	// ContentType is the payload's MIME type.
	ContentType() string
	// Size is the payload size in bytes, or -1 when unknown until read.
	Size() int64
}

// MemorySource holds the payload in memory; size and type are known up
// front. The multipart body is built without touching the filesystem.
type MemorySource struct {
	name        string
	contentType string
	data        []byte
}

func NewMemorySource(name, contentType string, data []byte) *MemorySource {
	return &MemorySource{name: name, contentType: contentType, data: data}
}

func (s *MemorySource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *MemorySource) Name() string        { return s.name }
func (s *MemorySource) ContentType() string { return s.contentType }
func (s *MemorySource) Size() int64         { return int64(len(s.data)) }

// FileSource references the payload by path. It is streamed from disk during
// upload and never read fully into memory, so peak memory stays bounded for
// large recordings.
type FileSource struct {
	path        string
	contentType string
}

// Common footage container types. The stdlib table has none of these built
// in, and the system mime database is not guaranteed to exist.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

func NewFileSource(path string) *FileSource {
	ext := strings.ToLower(filepath.Ext(path))
	contentType := videoTypes[ext]
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &FileSource{path: path, contentType: contentType}
}

func (s *FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset file: %w", err)
	}
	return f, nil
}

func (s *FileSource) Name() string        { return filepath.Base(s.path) }
func (s *FileSource) ContentType() string { return s.contentType }

func (s *FileSource) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return -1
	}
	return info.Size()
}
