// Package serve exposes the sections over HTTP
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"yamo/treasury/cmd/root"
	"yamo/treasury/internal/container"
	"yamo/treasury/internal/httpapi"
	"yamo/treasury/internal/logging"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// Addr overrides serve.addr when set
var Addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sections as a JSON and CSV API",
	Long: `Start an HTTP server for a browser front end. Every section is available at
/api/sections/{section} with ?q= for the search and repeated ?facet=name:value
selections, and as CSV at /api/sections/{section}/export.csv.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	Cmd.Flags().StringVar(&Addr, "addr", "", "Listen address (default from serve.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	addr := Addr
	if addr == "" {
		addr = c.GetConfig().Serve.Addr
	}

	ctx, stop := signal.NotifyContext(root.Context(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return Run(ctx, c, ln)
}

// Run loads the data cache, then serves on ln until ctx is done.
func Run(ctx context.Context, c *container.Container, ln net.Listener) error {
	logger := c.GetLogger()
	cfg := c.GetConfig()

	if _, err := c.GetCache().Reload(ctx); err != nil {
		logger.WithError(err).Warn("Initial data load failed, serving empty sections until reload")
	}

	server := &http.Server{
		Handler: httpapi.NewRouter(httpapi.RouterParams{
			Logger:            logger,
			Catalog:           c.GetCatalog(),
			Cache:             c.GetCache(),
			Delimiter:         cfg.Delimiter(),
			RequestsPerMinute: cfg.Serve.RequestsPerMinute,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.BackendTimeout() + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", logging.F(logging.FieldAddr, ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
