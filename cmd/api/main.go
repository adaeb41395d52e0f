package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/cradoe/payvista/internal/app"
	seeders "github.com/cradoe/payvista/internal/seeder"
	"github.com/cradoe/payvista/internal/version"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	seed := flag.Bool("seed", false, "seed the service catalog before starting")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if *seed {
		if err := seeders.New(application.DB, logger).Run(ctx); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	// the first component to fail stops the others
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return application.ServeHTTP(ctx)
	})
	g.Go(func() error {
		return application.Worker.WebhookWorker(ctx, application.WebhookWorker)
	})
	g.Go(func() error {
		return application.Worker.NotificationWorker(ctx, application.NotificationWorker)
	})
	g.Go(func() error {
		return application.Sweeper.Run(ctx, application.Config.Reconcile.Interval)
	})

	return g.Wait()
}
