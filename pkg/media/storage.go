package media

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const maxNameAttempts = 100

// Storage keeps attachments on an afero filesystem whose root is the media root.
// All paths it accepts and returns are media-relative and slash separated.
type Storage struct {
	fs afero.Fs
}

// NewStorage wraps fs. Use afero.NewBasePathFs to confine an OS filesystem to
// the configured media root.
func NewStorage(fs afero.Fs) *Storage {
	return &Storage{fs: fs}
}

// Fs exposes the underlying filesystem, e.g. for read-only HTTP serving.
func (s *Storage) Fs() afero.Fs { return s.fs }

// Save writes u under BuildPath(root, instanceName, filename) and returns the
// stored path. An existing file is never overwritten: a random suffix is added
// to the base name until the path is free.
func (s *Storage) Save(root Root, instanceName string, u *Upload) (string, error) {
	name := BuildPath(root, instanceName, ValidFilename(u.Filename))
	if !strings.HasPrefix(name, string(root)+"/") || path.Dir(name) == string(root) {
		return "", fmt.Errorf("invalid instance name %q for %s", instanceName, root)
	}
	name, err := s.availableName(name)
	if err != nil {
		return "", err
	}
	if _, err := u.Content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind %q: %w", u.Filename, err)
	}
	if err := afero.WriteReader(s.fs, name, u.Content); err != nil {
		return "", fmt.Errorf("write %q: %w", name, err)
	}
	return name, nil
}

func (s *Storage) availableName(name string) (string, error) {
	dir, file := path.Split(name)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	candidate := name
	for i := 0; i < maxNameAttempts; i++ {
		exists, err := afero.Exists(s.fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
		candidate = dir + stem + "_" + suffix + ext
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", name, maxNameAttempts)
}

// FileExists reports whether p names a regular file.
func (s *Storage) FileExists(p string) bool {
	info, err := s.fs.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file at p.
func (s *Storage) Remove(p string) error {
	return s.fs.Remove(p)
}

// RemoveDirIfEmpty removes dir only when it exists, is a directory and holds no
// entries. It never removes anything recursively.
func (s *Storage) RemoveDirIfEmpty(dir string) (bool, error) {
	isDir, err := afero.IsDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !isDir {
		return false, nil
	}
	empty, err := afero.IsEmpty(s.fs, dir)
	if err != nil || !empty {
		return false, err
	}
	if err := s.fs.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}

// OpenUpload opens name on fs as an upload candidate. The caller closes it.
func OpenUpload(fs afero.Fs, name string) (*Upload, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", name)
	}
	return &Upload{Filename: path.Base(name), Size: info.Size(), Content: f, closer: f}, nil
}
