package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		wantErr        bool
		expectedOutput string
	}{
		{
			name:           "serve command with help",
			args:           []string{"serve", "--help"},
			expectedOutput: "Start the HTTP server for the public site",
		},
		{
			name:    "serve command with invalid port",
			args:    []string{"serve", "--port", "invalid"},
			wantErr: true,
		},
		{
			name:    "serve command with out of range port",
			args:    []string{"serve", "--port", "70000"},
			wantErr: true,
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

func TestServeCommand_ShutsDownWithContext(t *testing.T) {
	useTempWorkspace(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"serve", "--host", "127.0.0.1", "--port", "18931"})

	require.NoError(t, cmd.ExecuteContext(ctx))
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCmd()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	for _, name := range []string{"host", "port"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), name)
	}
}
