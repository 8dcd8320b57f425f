package cmd

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		wantErr        bool
		expectedOutput string
	}{
		{
			name:           "root command without args shows help",
			args:           []string{},
			wantErr:        false,
			expectedOutput: "Stoop CMS",
		},
		{
			name:           "root command with --help",
			args:           []string{"--help"},
			wantErr:        false,
			expectedOutput: "Available Commands:",
		},
		{
			name:           "root command with invalid flag",
			args:           []string{"--invalid-flag"},
			wantErr:        true,
			expectedOutput: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.expectedOutput != "" && !strings.Contains(buf.String(), tt.expectedOutput) {
				t.Errorf("Expected output to contain %q, got %q", tt.expectedOutput, buf.String())
			}
		})
	}
}

func TestRootCommand_ListsSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())

	for _, name := range []string{"serve", "migrate", "record", "episodes", "version"} {
		assert.Contains(t, buf.String(), name)
	}
}

func TestLogFlags(t *testing.T) {
	cmd := NewRootCmd()

	logFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logFlag, "Expected log-level flag to be registered")
	assert.Equal(t, "info", logFlag.DefValue)
}

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	tests := []struct {
		name    string
		level   string
		wantErr bool
		logged  []string
		dropped []string
	}{
		{
			name:    "info drops debug",
			level:   "info",
			logged:  []string{"[INFO] started", "[WARN] slow", "[ERROR] broken"},
			dropped: []string{"[DEBUG] detail"},
		},
		{
			name:    "warn drops info and debug",
			level:   "WARN",
			logged:  []string{"[WARN] slow", "[ERROR] broken"},
			dropped: []string{"[DEBUG] detail", "[INFO] started"},
		},
		{
			name:   "debug keeps everything",
			level:  "debug",
			logged: []string{"[DEBUG] detail", "[INFO] started"},
		},
		{
			name:    "unknown level",
			level:   "loud",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			err := setLogLevel(tt.level, buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, line := range append(append([]string{}, tt.logged...), tt.dropped...) {
				log.Print(line)
			}
			for _, line := range tt.logged {
				assert.Contains(t, buf.String(), line)
			}
			for _, line := range tt.dropped {
				assert.NotContains(t, buf.String(), line)
			}
		})
	}
}

func TestNewRootCmd_ResetsStateBetweenRuns(t *testing.T) {
	out, err := runCLI(t, "", "version", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")

	out, err = runCLI(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "v"+Version+"\n", out)

	out, err = runCLI(t, "", "version")
	require.NoError(t, err)
	assert.NotContains(t, out, "Usage:", "--help must not carry over")
	assert.Contains(t, out, "  commit  ", "--short must not carry over")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.ExecuteContext(ctx))

	cmd = NewRootCmd()
	sub, _, err := cmd.Find([]string{"version"})
	require.NoError(t, err)
	assert.Nil(t, sub.Context(), "a cancelled context must not leak into the next run")
}
