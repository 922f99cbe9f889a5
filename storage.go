package povd

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/typ.v4/sync2"
)

// ImagesDir is the directory prefix images are conventionally addressed
// under. NormalizeName strips it.
const ImagesDir = "/images"

// File is an open stored image.
type File interface {
	io.ReadSeekCloser
}

// Storage provides random access to named image blobs. The engine only
// reads from it.
type Storage interface {
	// Exists returns true if the named image exists.
	Exists(name string) bool
	// Open opens the named image for reading.
	Open(name string) (File, error)
}

// NormalizeName strips a leading ImagesDir prefix or slash from name, so
// "/images/heart.bmp", "/heart.bmp" and "heart.bmp" all name the same image.
func NormalizeName(name string) string {
	if strings.HasPrefix(name, ImagesDir+"/") {
		return name[len(ImagesDir)+1:]
	}
	return strings.TrimPrefix(name, "/")
}

// DirStorage is a Storage serving images from a directory on disk.
type DirStorage struct {
	dir string
}

var _ Storage = (*DirStorage)(nil)

// NewDirStorage creates a DirStorage rooted at dir.
func NewDirStorage(dir string) *DirStorage {
	return &DirStorage{dir: dir}
}

func (s *DirStorage) path(name string) (string, error) {
	name = NormalizeName(name)
	if !fs.ValidPath(name) || name == "." {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return filepath.Join(s.dir, filepath.FromSlash(name)), nil
}

// Exists implements Storage.
func (s *DirStorage) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

// Open implements Storage.
func (s *DirStorage) Open(name string) (File, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// MemStorage is a Storage keeping images in memory. It is safe to Put and
// Remove images while another goroutine reads them.
type MemStorage struct {
	blobs sync2.Map[string, []byte]
}

var _ Storage = (*MemStorage)(nil)

// NewMemStorage creates an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{}
}

// Put stores data under name, replacing any previous image. The slice must not
// be modified afterwards.
func (s *MemStorage) Put(name string, data []byte) {
	s.blobs.Store(NormalizeName(name), data)
}

// Remove deletes the named image.
func (s *MemStorage) Remove(name string) {
	s.blobs.Delete(NormalizeName(name))
}

// Exists implements Storage.
func (s *MemStorage) Exists(name string) bool {
	_, ok := s.blobs.Load(NormalizeName(name))
	return ok
}

// Open implements Storage.
func (s *MemStorage) Open(name string) (File, error) {
	data, ok := s.blobs.Load(NormalizeName(name))
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return memFile{bytes.NewReader(data)}, nil
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }
