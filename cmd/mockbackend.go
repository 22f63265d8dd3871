package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ttlpanel/internal/backend"
	"ttlpanel/internal/config"
	"ttlpanel/internal/logging"
)

var serveMockCmd = &cobra.Command{
	Use:    "serve-mock",
	Short:  "Serve an in-memory TTL backend",
	Long:   `Serve the plugin method endpoint from an in-memory backend, for working on the panel without a device.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runServeMock,
}

var (
	mockAddr string
	mockTTL  int
)

func init() {
	rootCmd.AddCommand(serveMockCmd)

	serveMockCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:1337", "Listen address")
	serveMockCmd.Flags().IntVar(&mockTTL, "ttl", config.DefaultTTL, "Initial TTL")
}

func runServeMock(cmd *cobra.Command, args []string) error {
	logger, closer, err := setupLogger(logging.ModeCLI)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr: mockAddr,
		Handler: backend.NewRouter(backend.NewMockService(mockTTL), backend.ServerConfig{
			Plugin: appConfig.Plugin,
			Token:  appConfig.Token,
			Logger: logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Mock backend for %q listening on http://%s\n", appConfig.Plugin, mockAddr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock backend failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
