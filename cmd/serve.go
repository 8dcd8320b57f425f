package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stooppolitics/stoop-cms/api"
	"github.com/stooppolitics/stoop-cms/internal/services/cleanup"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Stoop CMS server",
	Long: `Start the HTTP server for the public site, RSS feed and admin API.

The server migrates the database on start, serves locally stored
media when the filesystem backend is selected and shuts down
gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "host to bind (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		viper.Set("server.host", host)
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port: %d", port)
		}
		viper.Set("server.port", port)
	}

	cfg, err := appConfig()
	if err != nil {
		return err
	}

	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := api.NewServer(cfg)
	server.SetDependencies(app.dependencies(Version))
	server.SetCacheStopper(app.stopCache)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := cleanup.NewService(cfg.Storage.TempDir, cfg.Storage.TempMaxAge, 15*time.Minute)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] Stoop CMS listening on %s", server.Address())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Printf("[INFO] Shutting down server...")
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Printf("[INFO] Server stopped")
	return nil
}
