package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/cutline"
	httpadapter "github.com/aretw0/cutline/pkg/adapters/http"
	"github.com/aretw0/cutline/pkg/adapters/mcp"
)

// DefaultAddress is used when neither the flag nor the file names one.
const DefaultAddress = ":8080"

// ServeOptions configure the serve command.
type ServeOptions struct {
	Address string
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, opts Options, serve ServeOptions) error {
	streams := httpadapter.NewStreamManager(nil)
	app, err := Setup(opts, cutline.WithLifecycleHooks(streams.Hooks()))
	if err != nil {
		return err
	}
	defer app.Close()

	addr := serve.Address
	if addr == "" {
		addr = app.Config.Server.Address
	}
	if addr == "" {
		addr = DefaultAddress
	}

	handler := httpadapter.NewHandler(app.Engine,
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithStreams(streams),
		httpadapter.WithMetrics(app.Metrics.Handler()),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting cutline server", "address", addr, "devices", len(app.Config.Devices))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		app.Logger.Info("Start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		app.Logger.Info("Server stopped gracefully")
		return nil
	}
}

// MCPOptions configure the mcp command.
type MCPOptions struct {
	Transport string // "stdio" or "sse"
	Address   string
}

// ServeMCP runs the MCP server on the chosen transport.
func ServeMCP(ctx context.Context, opts Options, m MCPOptions) error {
	app, err := Setup(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := mcp.NewServer(app.Engine, mcp.WithLogger(app.Logger))
	switch m.Transport {
	case "", "stdio":
		app.Logger.Info("Starting cutline MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		addr := m.Address
		if addr == "" {
			addr = DefaultAddress
		}
		err := srv.ServeSSE(ctx, addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return errors.New("unknown transport " + m.Transport + ", supported: stdio, sse")
}
