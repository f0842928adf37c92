package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStore writes media below the root of an afero filesystem.
type LocalStore struct {
	fs        afero.Fs
	urlPrefix string
}

var _ ImageStore = (*LocalStore)(nil)

func NewLocalStore(fs afero.Fs, urlPrefix string) *LocalStore {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{fs: fs, urlPrefix: urlPrefix}
}

// fsPath roots keys so they line up with what the file server asks for.
func fsPath(key string) string {
	return "/" + strings.TrimPrefix(key, "/")
}

func (s *LocalStore) Save(_ context.Context, key string, body io.Reader, _ string) error {
	if err := s.fs.MkdirAll(path.Dir(fsPath(key)), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	f, err := s.fs.OpenFile(fsPath(key), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open media file %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write media file %s: %w", key, err)
	}
	return f.Close()
}

// Delete ignores keys that are already gone.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := s.fs.Remove(fsPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.urlPrefix + key
}

// Exists reports whether a key is present, mainly for tests and admin checks.
func (s *LocalStore) Exists(key string) bool {
	ok, err := afero.Exists(s.fs, fsPath(key))
	return err == nil && ok
}

// Handler serves the stored files below the URL prefix. Directories are
// answered with 404 so uploads cannot be enumerated.
func (s *LocalStore) Handler() http.Handler {
	return http.StripPrefix(s.urlPrefix, http.FileServer(filesOnly{afero.NewHttpFs(s.fs)}))
}

// filesOnly hides directories from http.FileServer.
type filesOnly struct {
	http.FileSystem
}

func (fs filesOnly) Open(name string) (http.File, error) {
	f, err := fs.FileSystem.Open(name)
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
		return nil, os.ErrNotExist
	}
	return f, nil
}

// Prefix is the URL path the Handler should be mounted on.
func (s *LocalStore) Prefix() string {
	return s.urlPrefix
}
