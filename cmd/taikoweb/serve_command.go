package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"taikoweb/config"
	"taikoweb/database"
	"taikoweb/handlers/songs"
	"taikoweb/middleware"
	"taikoweb/realtime"
	v1 "taikoweb/routes/v1"
	"taikoweb/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve [PORT]",
		Short: "Run the HTTP API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				port, err := strconv.Atoi(args[0])
				if err != nil || port <= 0 || port > 65535 {
					return fmt.Errorf("invalid port %q", args[0])
				}
				cfg.Port = port
			}
			if cmd.Flags().Changed("bind-address") {
				cfg.BindAddress = bind
			}
			if debug {
				cfg.Debug = true
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(runCtx, cfg, log)
		},
	}

	cmd.Flags().StringVarP(&bind, "bind-address", "b", "localhost", "Address to listen on")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Run in debug mode")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := database.NewCache(redisClient)
	sessions := database.NewSessionStore(redisClient)

	hub := realtime.NewHub(log)
	notifiers := []services.SongNotifier{songs.NewCacheInvalidator(cache, log), hub}
	if cfg.NatsURL != "" {
		publisher, err := realtime.NewNatsPublisher(cfg.NatsURL, cfg.NatsSubject, log)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	a, err := newApp(ctx, cfg, log, notifiers...)
	if err != nil {
		return err
	}
	defer a.Close()

	go hub.Run(ctx)
	go services.RunStagingSweeper(ctx, a.staging.Root(), cfg.StagingSweepInterval, cfg.StagingMaxAge, a.store, log)
	middleware.UpdateSystemMetrics(ctx, 15*time.Second)

	router := newRouter(cfg, log, a, cache, sessions, hub)
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("basedir", cfg.BaseDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, log *zap.Logger, a *app, cache *database.Cache, sessions *database.SessionStore, hub *realtime.Hub) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Location"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	resolver := middleware.ChainResolver{
		middleware.SessionResolver{Sessions: sessions, Cookie: cfg.SessionCookie},
		middleware.NewTokenResolver(cfg.SecretKey),
	}
	v1.Register(r, v1.Dependencies{
		Config:   cfg,
		Resolver: resolver,
		Gate:     a.gate,
		Songs:    songs.NewHandler(a.pipeline, a.store, cache, cfg.Limits.MaxUploadBytes, songLocation(cfg), log),
		Feed:     songs.NewFeedHandler(hub, cfg.AllowedOrigins, log),
		Log:      log,
	})
	return r
}

func songLocation(cfg *config.Config) func(id string) string {
	return func(id string) string {
		return cfg.Route("admin/songs/" + id)
	}
}
