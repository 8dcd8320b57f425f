package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// useTempWorkspace points the database, media and temp directories at a fresh directory
func useTempWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("STOOP_DATABASE_DRIVER", "sqlite")
	t.Setenv("STOOP_DATABASE_PATH", filepath.Join(dir, "stoop.db"))
	t.Setenv("STOOP_STORAGE_BACKEND", "filesystem")
	t.Setenv("STOOP_STORAGE_BASE_PATH", filepath.Join(dir, "media"))
	t.Setenv("STOOP_STORAGE_TEMP_DIR", dir)
	t.Setenv("STOOP_CACHE_ENABLED", "false")
	t.Setenv("STOOP_OPENAI_API_KEY", "")
	t.Setenv("STOOP_SUPABASE_JWKS_URL", "")
	t.Setenv("STOOP_INTAKE_FFMPEG_PATH", filepath.Join(dir, "no-ffmpeg"))
	t.Setenv("STOOP_INTAKE_FFPROBE_PATH", filepath.Join(dir, "no-ffprobe"))
	return dir
}

// runCLI executes the root command with args and stdin and returns the combined output
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
