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

	"catalog/internal/rbac/handler"
	"catalog/internal/rbac/policy"
	"catalog/internal/rbac/router"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "catalog",
		Usage: "Catalog API with role-based access control and search sync",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "bootstrap",
						Value: true,
						Usage: "Seed default permissions, roles and the admin account before serving",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runServer(ctx, cmd.Bool("bootstrap"))
				},
			},
			{
				Name:  "bootstrap",
				Usage: "Seed default permissions, roles and the admin account",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(ctx)
					if err != nil {
						return err
					}
					defer a.close(context.Background())
					return a.bootstrap(ctx)
				},
			},
			{
				Name:  "reindex",
				Usage: "Rebuild the product search index from the primary store",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(ctx)
					if err != nil {
						return err
					}
					defer a.close(context.Background())

					n, err := a.svc.RebuildIndex(ctx)
					if err != nil {
						return err
					}
					a.logger.Info("Search index rebuilt", "count", n)
					return nil
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, bootstrap bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	logger := a.logger

	if bootstrap {
		if err := a.bootstrap(ctx); err != nil {
			a.close(context.Background())
			return fmt.Errorf("bootstrap failed: %w", err)
		}
	}

	policies, err := policy.NewLoader().LoadRoutePolicies()
	if err != nil {
		a.close(context.Background())
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	router.RegisterRoutes(e, router.Deps{
		Handler:  handler.NewHandler(a.svc),
		Resolver: a.resolver,
		Policies: policies,
		Auth: handler.AuthConfig{
			JWTSecret:       a.cfg.JWTSecret,
			TrustUserHeader: a.cfg.TrustUserHeader,
		},
		Metrics: a.metrics,
	})

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      e,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case <-quit:
	case serveErr = <-errCh:
		logger.Error("shutting down the server", "error", serveErr)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server Shutdown Failed", "error", err)
	}
	a.close(shutdownCtx)

	logger.Info("Server exited properly")
	return serveErr
}
