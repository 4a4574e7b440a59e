package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/internal/transport/httpapi"
	"github.com/kislikjeka/userregistry/internal/transport/httpapi/handler"
	"github.com/kislikjeka/userregistry/internal/transport/httpapi/middleware"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, log, err := a.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			log.Info("Starting user registry API server",
				"env", cfg.Env,
				"port", cfg.Port,
				"store", cfg.StoreDriver,
			)

			st, err := a.openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := user.NewService(st.Users, log)

			docs, err := handler.NewDocsHandler(httpapi.OpenAPISpec)
			if err != nil {
				return err
			}

			routerCfg := httpapi.Config{
				Logger:         log,
				AllowedOrigins: cfg.AllowedOrigins,
				RateLimitRPS:   cfg.RateLimitRPS,
				RateLimitBurst: cfg.RateLimitBurst,
				UserHandler:    handler.NewUserHandler(svc, log),
				HealthHandler:  handler.NewHealthHandler(st, st.Driver, version, log),
				DocsHandler:    docs,
			}
			if cfg.AuthEnabled() {
				routerCfg.JWTMiddleware = middleware.JWTMiddleware(middleware.NewJWTService(cfg.JWTSecret))
			} else {
				log.Warn("JWT_SECRET not configured, mutating routes are unauthenticated")
			}

			srv := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      httpapi.NewRouter(routerCfg),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
				BaseContext:  func(net.Listener) context.Context { return ctx },
			}

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				log.Info("Server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				log.Info("Shutdown signal received")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				return nil
			})

			if err := g.Wait(); err != nil {
				log.Error("Server stopped with error", "error", err)
				return err
			}

			log.Info("Server stopped gracefully")
			return nil
		},
	}
}
