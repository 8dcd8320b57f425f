package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FilesystemStore {
	store, err := NewFilesystemStore(t.TempDir(), "http://localhost:8080/media/")
	require.NoError(t, err)
	return store
}

func TestNewFilesystemStore_CreatesFolders(t *testing.T) {
	base := filepath.Join(t.TempDir(), "media")
	store, err := NewFilesystemStore(base, "http://localhost:8080/media")
	require.NoError(t, err)

	for _, dir := range []string{"audio", "covers"} {
		info, err := os.Stat(filepath.Join(store.Root(), dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFilesystemStore_PutOpenDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	url, err := store.Put(ctx, "audio/1700000000000-audio.webm", strings.NewReader("RIFF...."), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/audio/1700000000000-audio.webm", url)

	rc, err := store.Open(ctx, "audio/1700000000000-audio.webm")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "RIFF....", string(data))

	require.NoError(t, store.Delete(ctx, "audio/1700000000000-audio.webm", "", "covers/missing.png"))

	_, err = store.Open(ctx, "audio/1700000000000-audio.webm")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestFilesystemStore_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []string{"../escape.mp3", "audio/../../escape.mp3", "", "/"}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := store.Put(ctx, key, strings.NewReader("x"), "audio/mpeg")
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestFilesystemStore_KeyFromURL(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		url     string
		wantKey string
		wantOK  bool
	}{
		{"http://localhost:8080/media/audio/1-audio.mp3", "audio/1-audio.mp3", true},
		{"http://localhost:8080/media/", "", false},
		{"https://cdn.example.com/audio/1-audio.mp3", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			key, ok := store.KeyFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestKeyFromPublicBucketURL(t *testing.T) {
	project := "https://abc.supabase.co"

	key, ok := keyFromPublicBucketURL(project, "media", project+"/storage/v1/object/public/media/covers/1-cover.png?")
	assert.True(t, ok)
	assert.Equal(t, "covers/1-cover.png", key)

	_, ok = keyFromPublicBucketURL(project, "media", project+"/storage/v1/object/public/other/covers/1-cover.png")
	assert.False(t, ok)
}

func TestNewSupabaseStore_RequiresCredentials(t *testing.T) {
	_, err := NewSupabaseStore("", "", "media")
	assert.Error(t, err)
}
