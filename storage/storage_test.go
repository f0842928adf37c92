package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"recipe-api/config"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewLocalStore(fs, "/media")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "uploads/recipe/a.jpg", strings.NewReader("jpeg bytes"), "image/jpeg"))
	assert.True(t, store.Exists("uploads/recipe/a.jpg"))
	assert.Equal(t, "/media/uploads/recipe/a.jpg", store.URL("uploads/recipe/a.jpg"))
	assert.Equal(t, "", store.URL(""))

	req := httptest.NewRequest(http.MethodGet, "/media/uploads/recipe/a.jpg", nil)
	w := httptest.NewRecorder()
	store.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg bytes", w.Body.String())

	require.NoError(t, store.Delete(ctx, "uploads/recipe/a.jpg"))
	assert.False(t, store.Exists("uploads/recipe/a.jpg"))
	assert.NoError(t, store.Delete(ctx, "uploads/recipe/a.jpg"), "deleting twice is not an error")
}

func TestLocalStoreHidesDirectories(t *testing.T) {
	store := NewLocalStore(afero.NewMemMapFs(), "/media/")
	require.NoError(t, store.Save(context.Background(), "uploads/recipe/a.jpg", strings.NewReader("jpeg bytes"), "image/jpeg"))

	for _, target := range []string{"/media/", "/media/uploads/", "/media/uploads/recipe/", "/media/uploads/recipe"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		store.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.NotContains(t, w.Body.String(), "a.jpg", target)
	}

	req := httptest.NewRequest(http.MethodGet, "/media/uploads/recipe/a.jpg", nil)
	w := httptest.NewRecorder()
	store.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

type fakeS3 struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	client := &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}
	store := NewS3StoreWithClient(client, "recipes", "https://cdn.example.com/")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "uploads/recipe/b.png", bytes.NewReader([]byte("png")), "image/png"))
	assert.Equal(t, []byte("png"), client.puts["uploads/recipe/b.png"])
	assert.Equal(t, "image/png", client.types["uploads/recipe/b.png"])
	assert.Equal(t, "https://cdn.example.com/uploads/recipe/b.png", store.URL("uploads/recipe/b.png"))

	require.NoError(t, store.Delete(ctx, "uploads/recipe/b.png"))
	assert.Equal(t, []string{"uploads/recipe/b.png"}, client.deleted)
}

func TestNewRequiresBucketForS3(t *testing.T) {
	_, err := New(context.Background(), config.MediaConfig{Backend: "s3"}, config.S3Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), config.MediaConfig{Backend: "ftp"}, config.S3Config{})
	assert.Error(t, err)
}
