package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/api/handlers"
	"github.com/zatekoja/clinicdesk/internal/api/routes"
	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/application/services"
	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

func (c *cli) displayCmd() *cobra.Command {
	var (
		addr       string
		department string
	)
	cmd := &cobra.Command{
		Use:   "display",
		Short: "Serve the waiting-room token board over HTTP and SSE",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			if addr == "" {
				addr = a.cfg.Display.Addr()
			}
			return runDisplay(ctx, a, addr, emrapi.QueueFilter{Department: department})
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (DISPLAY_HOST:DISPLAY_PORT)")
	cmd.Flags().StringVar(&department, "department", "", "only show this department")
	return cmd
}

func runDisplay(ctx context.Context, a *app, addr string, filter emrapi.QueueFilter) error {
	queue, err := views.NewQueueView(a.deps(), a.client, filter)
	if err != nil {
		return err
	}

	poller := resources.NewPoller(a.registry, a.cfg.Sync.PollInterval, views.KeyQueue)
	if a.bus != nil {
		svc := services.NewInvalidationService(a.bus, poller, a.cfg.Clinic.ID, a.dispatcher.Origin(), a.logger)
		if err := svc.Start(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("live invalidation unavailable")
		} else {
			defer svc.Stop()
		}
	}
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	displayHandler := handlers.NewDisplayHandler(a.cfg.Clinic.ID, queue, a.registry, []string{views.KeyQueue}, a.logger,
		handlers.WithFreshness(queue.Queue.Status))
	router := routes.NewRouter(displayHandler, a.cfg.Display.AllowedOrigins, a.metrics, a.logger)

	server := &http.Server{
		Addr:        addr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 30 * time.Second,
		// Streams stay open; no write timeout.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		// Open streams end with ctx so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Str("clinic_id", a.cfg.Clinic.ID).Msg("display server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("display server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("error during server shutdown")
	}
	a.logger.Info().Msg("display server stopped")
	return nil
}
