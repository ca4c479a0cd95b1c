// Command server runs the discharge verification API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clearpath/internal/app"
	dischargehandler "clearpath/internal/discharge/handler"
	"clearpath/internal/jwttoken"
	"clearpath/internal/platform/config"
	"clearpath/internal/platform/httpserver"
	"clearpath/internal/platform/logger"
	"clearpath/internal/platform/middleware"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	handler := dischargehandler.New(engine.Service, engine.Store, log)
	router.Group(func(r chi.Router) {
		if cfg.AuthRequired {
			tokens := jwttoken.New(cfg.JWTSigningKey, "clearpath", "clearpath-api")
			r.Use(middleware.RequireAuth(tokens, log))
		}
		handler.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening",
			"addr", cfg.Addr,
			"state_backend", string(cfg.StateBackend),
			"auth_required", cfg.AuthRequired,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
