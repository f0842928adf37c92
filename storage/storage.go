// Package storage keeps uploaded media files and hands out their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"recipe-api/config"

	"github.com/spf13/afero"
)

var ErrNotConfigured = errors.New("media storage is not configured")

// ImageStore saves and removes uploaded files by storage key.
type ImageStore interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL maps a storage key to the address clients download it from.
	URL(key string) string
}

// New builds the store selected by media.backend.
func New(ctx context.Context, media config.MediaConfig, s3cfg config.S3Config) (ImageStore, error) {
	switch media.Backend {
	case "", "local":
		fs := afero.NewBasePathFs(afero.NewOsFs(), media.Root)
		return NewLocalStore(fs, media.URLPrefix), nil
	case "s3":
		return NewS3Store(ctx, s3cfg)
	default:
		return nil, fmt.Errorf("unknown media backend %q", media.Backend)
	}
}
