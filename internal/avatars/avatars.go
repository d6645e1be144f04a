// Package avatars stores profile pictures on a pluggable filesystem.
package avatars

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// MaxSize is the largest accepted upload.
const MaxSize = 5 << 20

var (
	ErrUnsupportedType = errors.New("avatar must be a PNG, JPEG, GIF or WebP image")
	ErrTooLarge        = errors.New("avatar exceeds 5 MiB")
	ErrEmpty           = errors.New("avatar is empty")
)

var allowed = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Store struct {
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Save sniffs and writes an upload for profileID, replacing any previous
// picture. It returns the stored file name.
func (s *Store) Save(profileID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowed[mtype.String()]
	if !ok {
		return "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, mtype.String())
	}

	name := profileID + ext
	for _, other := range allowed {
		if other != ext {
			s.fs.Remove(filepath.Join(s.dir, profileID+other))
		}
	}
	if err := afero.WriteReader(s.fs, filepath.Join(s.dir, name), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return name, nil
}

// Open returns the stored picture and its content type.
func (s *Store) Open(name string) (afero.File, string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, "", err
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", err
	}
	return f, mtype.String(), nil
}

// Delete removes a stored picture; a missing file is not an error.
func (s *Store) Delete(name string) error {
	err := s.fs.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
