package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stooppolitics/stoop-cms/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stoop",
	Short: "Stoop CMS server and tools",
	Long: `Stoop CMS - a small content system for one podcast

Record or upload an episode, let it be transcribed into editable
transcript nodes, publish it and serve the public page and RSS feed.

Features:
  • Microphone capture and audio upload
  • Hosted speech-to-text with timed transcript nodes
  • Inline transcript editing and caption import/export
  • Public page, archive and RSS feed with response caching
  • Listener inbox`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		return setLogLevel(level, os.Stderr)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command with every flag back at its default,
// so repeated executions in one process start from the same state
func NewRootCmd() *cobra.Command {
	resetCommand(rootCmd)
	return rootCmd
}

func resetCommand(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)

	// ExecuteContext hands its context down only to commands that have none
	c.SetContext(nil) //nolint:staticcheck

	for _, sub := range c.Commands() {
		resetCommand(sub)
	}
}

func init() {
	// Set up configuration loading with lazy initialization
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig loads the configuration when a command needs it
func loadConfig() {
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// appConfig returns the loaded configuration, initializing it if a test skipped OnInitialize
func appConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, err
	}
	return config.GetConfig()
}

var logLevels = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// levelWriter drops log lines tagged below the minimum level
type levelWriter struct {
	out io.Writer
	min int
}

func (w *levelWriter) Write(p []byte) (int, error) {
	for tag, level := range map[string]int{"[DEBUG]": 0, "[INFO]": 1, "[WARN]": 2} {
		if level < w.min && bytes.Contains(p, []byte(tag)) {
			return len(p), nil
		}
	}
	return w.out.Write(p)
}

func setLogLevel(level string, out io.Writer) error {
	min, ok := logLevels[strings.ToLower(level)]
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	log.SetOutput(&levelWriter{out: out, min: min})
	return nil
}
