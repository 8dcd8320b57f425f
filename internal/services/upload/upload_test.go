package upload

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stooppolitics/stoop-cms/internal/services/storage"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	storage.ObjectStore
}

func (failingStore) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	return "", errors.New("bucket quota exceeded")
}

func newTestClient(t *testing.T) (*Client, *storage.FilesystemStore) {
	store, err := storage.NewFilesystemStore(t.TempDir(), "http://localhost:8080/media")
	require.NoError(t, err)

	fixed := time.UnixMilli(1700000000123)
	return NewClient(store, WithClock(func() time.Time { return fixed })), store
}

func TestClient_UploadAudio(t *testing.T) {
	client, store := newTestClient(t)

	obj, err := client.UploadAudio(context.Background(), strings.NewReader("RIFF"), "audio/wav", ".WAV")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^audio/1700000000123-audio-[0-9a-f]{8}\.wav$`), obj.Key)
	assert.Equal(t, "http://localhost:8080/media/"+obj.Key, obj.URL)

	rc, err := store.Open(context.Background(), obj.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "RIFF", string(data))
}

func TestClient_UploadCover(t *testing.T) {
	client, _ := newTestClient(t)

	obj, err := client.UploadCover(context.Background(), strings.NewReader("png"), "image/png", "png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "covers/1700000000123-cover-"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
}

func TestClient_KeysDoNotCollide(t *testing.T) {
	client, _ := newTestClient(t)

	first, err := client.UploadAudio(context.Background(), strings.NewReader("a"), "audio/mpeg", "mp3")
	require.NoError(t, err)
	second, err := client.UploadAudio(context.Background(), strings.NewReader("b"), "audio/mpeg", "mp3")
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
}

func TestClient_UploadFailure(t *testing.T) {
	client := NewClient(failingStore{})

	_, err := client.UploadAudio(context.Background(), strings.NewReader("a"), "audio/mpeg", "mp3")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeExternalService, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "bucket quota exceeded")

	_, err = client.UploadCover(context.Background(), strings.NewReader("a"), "image/png", "png")
	assert.Error(t, err)
}

func TestClient_Remove(t *testing.T) {
	client, store := newTestClient(t)

	obj, err := client.UploadAudio(context.Background(), strings.NewReader("a"), "audio/mpeg", "mp3")
	require.NoError(t, err)

	require.NoError(t, client.Remove(context.Background(), obj.Key, ""))
	_, err = store.Open(context.Background(), obj.Key)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	assert.NoError(t, client.Remove(context.Background()))
}
