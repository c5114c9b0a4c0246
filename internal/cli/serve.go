package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/schedule"
	"github.com/banux/tcg-kiosk/internal/server"
	"github.com/banux/tcg-kiosk/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.ListenAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %q: %w", a.cfg.DataDir, err)
	}

	src, closeSrc, err := a.openSource()
	if err != nil {
		return err
	}
	defer closeSrc()

	// Build the catalog before accepting requests.
	if _, err := src.Snapshot(); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if a.cfg.InvalidateSchedule != "" {
		inv, ok := src.(catalog.Invalidator)
		if !ok {
			return fmt.Errorf("backend %q does not support scheduled invalidation", a.cfg.Backend)
		}
		sched, err := schedule.New(a.cfg.InvalidateSchedule, inv, src, true, a.log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		a.log.Info().Str("schedule", a.cfg.InvalidateSchedule).Msg("scheduled catalog invalidation enabled")
	}

	handler := server.New(src, server.Options{
		Translator:      a.tr,
		Engine:          a.engine(),
		PageSize:        a.cfg.PageSize,
		ImageProxy:      a.imageProxy(),
		TypeIcons:       a.cfg.TypeIcons,
		RefreshInterval: a.cfg.RefreshRateLimit,
		Logger:          a.log,
		WebFS:           web.FS,
	})
	httpSrv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", a.cfg.ListenAddr).
			Str("data_dir", a.cfg.DataDir).
			Str("backend", a.cfg.Backend).
			Msg("tcg-kiosk listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
