package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/cli"
	"github.com/aretw0/quill/internal/presentation/tui"
	quillhttp "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the essay API over HTTP",
		Long: `Starts a JSON API over the configured store, with /api/suggestions proxying
to the suggestion service and Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			handler, err := a.httpHandler()
			if err != nil {
				return err
			}
			tui.PrintBanner(cmd.ErrOrStderr(), quill.Version)
			return serveHTTP(cmd.Context(), a, fmt.Sprintf(":%d", port), handler)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}

func (a *app) httpHandler() (http.Handler, error) {
	hooks := a.hooks()
	opts := []quillhttp.Option{
		quillhttp.WithLogger(a.logger),
		quillhttp.WithVersion(quill.Version),
	}

	if a.cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		hooks = hooks.Merge(metrics.Hooks())
		opts = append(opts, quillhttp.WithMetrics(observability.Handler(reg)))
	}
	if g := cli.NewGateway(a.cfg.Suggest); g != nil {
		opts = append(opts, quillhttp.WithGateway(g))
	}

	repo, engine := cli.NewService(a.cfg, a.backend, a.logger, hooks)
	return quillhttp.NewHandler(repo, engine, opts...), nil
}

func serveHTTP(ctx context.Context, a *app, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("quill server listening", "address", addr, "backend", a.cfg.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		a.logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	}
}
