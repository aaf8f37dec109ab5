package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/sticky"
	httpAdapter "github.com/aretw0/sticky/pkg/adapters/http"
	"github.com/aretw0/sticky/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the diagnostics HTTP server",
	Long: `Starts a router over the state tree and exposes it as a JSON API over HTTP:
inactive states, plans, transitions, Prometheus metrics and the OpenAPI document.
With --sessions, per-session transitions are persisted in the configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		withSessions, _ := cmd.Flags().GetBool("sessions")

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics("sticky")
		if err := metrics.Register(reg); err != nil {
			return err
		}

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		hooks := metrics.Hooks().Merge(observability.AuditHooks(logger))
		router, _, err := newRouter(cmd, sticky.WithLifecycleHooks(hooks))
		if err != nil {
			return err
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithGatherer(reg),
		}
		if withSessions {
			sessions, closeStore, err := openSessions(cmd, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			sessionRouter, _, err := newRouter(cmd, sticky.WithLifecycleHooks(hooks))
			if err != nil {
				return err
			}
			opts = append(opts, httpAdapter.WithSessions(sessions, sessionRouter))
		}

		handler, err := httpAdapter.NewHandler(router, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting sticky server on %s\n", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			logger.Info("sticky server stopped gracefully")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("sessions", false, "Enable the session endpoints")
	addStoreFlags(serveCmd.Flags())
}
