package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	return path
}

func TestService_Sweep(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		age         time.Duration
		wantRemoved bool
	}{
		{name: "stale intake spool", file: "intake_123.mp3", age: 2 * time.Hour, wantRemoved: true},
		{name: "stale retranscription download", file: "episode_abc_456.wav", age: 2 * time.Hour, wantRemoved: true},
		{name: "fresh intake spool", file: "intake_789.webm", age: time.Minute},
		{name: "unrelated file", file: "notes.txt", age: 48 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := touch(t, dir, tt.file, tt.age)

			s := NewService(dir, time.Hour, time.Minute)
			removed := s.Sweep()

			_, err := os.Stat(path)
			if tt.wantRemoved {
				assert.Equal(t, 1, removed)
				assert.True(t, os.IsNotExist(err))
			} else {
				assert.Equal(t, 0, removed)
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_SweepSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "intake_dir"), 0755))

	s := NewService(dir, 0, time.Minute)
	assert.Equal(t, 0, s.Sweep())
	assert.DirExists(t, filepath.Join(dir, "intake_dir"))
}

func TestService_SweepMissingDir(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "gone"), time.Hour, time.Minute)
	assert.Equal(t, 0, s.Sweep())
}

func TestService_StartStop(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "intake_old.mp3", 2*time.Hour)

	s := NewService(dir, time.Hour, 10*time.Millisecond)
	s.Start(context.Background())
	s.Stop()

	// The initial sweep runs synchronously
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
