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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/example/campground/internal/http"
	"github.com/example/campground/internal/jobs"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled waiting list promotion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIToken(); err != nil {
				return err
			}
			verifier, err := httptransport.NewBcryptTokenVerifier(cfg.APITokenHash)
			if err != nil {
				return fmt.Errorf("CAMPGROUND_API_TOKEN_HASH: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			loc := cfg.Location()
			router := httptransport.NewRouter(httptransport.RouterConfig{
				Availability: httptransport.NewAvailabilityHandler(a.availability, loc, logger),
				Campsites:    httptransport.NewCampsiteHandler(a.campsites, logger),
				Assignments:  httptransport.NewAssignmentHandler(a.assignments, a.reservations, loc, logger),
				Reservations: httptransport.NewReservationHandler(a.reservations, a.assignments, loc, logger),
				Waitlist:     httptransport.NewWaitlistHandler(a.waitlist, loc, logger),
				Fees:         httptransport.NewFeeHandler(a.fees, time.Now, loc, logger),
				Verifier:     verifier,
				Health:       a.health,
				Logger:       logger,
			})

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:           router,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			var scheduler *jobs.Scheduler
			if cfg.PromotionEnabled() {
				job := jobs.NewPromotionJob(a.waitlist, cfg.PromotionTimeout, logger)
				scheduler, err = jobs.NewScheduler(cfg.PromotionSchedule, loc, job, logger)
				if err != nil {
					return err
				}
			} else {
				logger.Info("scheduled promotion disabled")
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("starting server", "addr", server.Addr, "storage", cfg.Storage, "lock_backend", cfg.LockBackend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				logger.Info("shutting down server")
				return server.Shutdown(shutdownCtx)
			})
			if scheduler != nil {
				g.Go(func() error {
					return scheduler.Run(gctx)
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
