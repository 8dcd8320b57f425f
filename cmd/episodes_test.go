package cmd

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stooppolitics/stoop-cms/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, dir string) string {
	t.Helper()
	pcm := make([]byte, 16000*2) // one second of silence
	path := filepath.Join(dir, "episode.wav")
	require.NoError(t, os.WriteFile(path, capture.EncodeWAV(pcm, capture.Format{SampleRate: 16000, Channels: 1}), 0644))
	return path
}

var savedID = regexp.MustCompile(`Saved episode ([0-9a-f-]{36})`)

func TestEpisodesCommand_Lifecycle(t *testing.T) {
	dir := useTempWorkspace(t)
	audio := writeTestWAV(t, dir)

	out, err := runCLI(t, "", "episodes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No episodes yet")

	out, err = runCLI(t, "", "episodes", "create", "--title", "Block Party Permits", "--file", audio, "--transcribe=false")
	require.NoError(t, err, out)
	match := savedID.FindStringSubmatch(out)
	require.Len(t, match, 2, out)
	id := match[1]
	assert.Contains(t, out, "/media/audio/")

	// The audio landed in the media directory
	entries, err := os.ReadDir(filepath.Join(dir, "media", "audio"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	out, err = runCLI(t, "", "episodes", "list")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(id+`\s+Block Party Permits\s+draft`), out)

	out, err = runCLI(t, "", "episodes", "publish", id)
	require.NoError(t, err)
	assert.Contains(t, out, `Published "Block Party Permits"`)

	// Publishing twice fails
	_, err = runCLI(t, "", "episodes", "publish", id)
	assert.Error(t, err)

	out, err = runCLI(t, "n\n", "episodes", "delete", id, "--yes=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")

	out, err = runCLI(t, "", "episodes", "delete", id, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "Block Party Permits"`)

	entries, err = os.ReadDir(filepath.Join(dir, "media", "audio"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	out, err = runCLI(t, "", "episodes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No episodes yet")
}

func TestEpisodesCommand_Errors(t *testing.T) {
	dir := useTempWorkspace(t)
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("not audio"), 0644))

	tests := []struct {
		name string
		args []string
	}{
		{"publish needs an id", []string{"episodes", "publish"}},
		{"unknown episode", []string{"episodes", "publish", "3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b"}},
		{"missing audio file", []string{"episodes", "create", "--title", "X", "--file", filepath.Join(dir, "missing.mp3")}},
		{"unsupported audio format", []string{"episodes", "create", "--title", "X", "--file", text}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}
