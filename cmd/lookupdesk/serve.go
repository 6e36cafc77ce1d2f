package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lookupdesk/internal/adapters/datasets"
	"lookupdesk/internal/adapters/ledger"
	"lookupdesk/internal/blob"
	"lookupdesk/internal/core"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dataset, export and ledger HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	svc, closeStore, err := a.openService(ctx, core.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer closeStore()

	artifacts, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	worker := datasets.NewWorker(svc, datasets.NewBlobObjectStore(artifacts),
		datasets.WithQueueSize(a.cfg.Exports.QueueSize),
		datasets.WithWorkerLogger(a.logger),
		datasets.WithAuditLogger(datasets.ZapAuditLogger{Logger: a.logger.Named("audit")}),
	)
	worker.Start()

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           newMux(svc, worker, reg, a.logger),
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		return errors.Join(err, worker.Stop(shutdownCtx))
	})
	err = g.Wait()
	a.logger.Info("http stopped", zap.Error(err))
	return err
}

func newMux(svc *core.Service, exports datasets.ExportScheduler, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(datasets.Prefix+"/", &datasets.Handler{Catalog: svc, Exports: exports, Logger: logger})
	mux.Handle(ledger.Prefix+"/", &ledger.Handler{Ledger: svc, Logger: logger})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
