package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "github.com/edupulse/edupulse-backend/internal/api/http"
	auth "github.com/edupulse/edupulse-backend/internal/auth/middleware"
	"github.com/edupulse/edupulse-backend/internal/config"
	"github.com/edupulse/edupulse-backend/internal/db"
	"github.com/edupulse/edupulse-backend/internal/metrics"
	"github.com/edupulse/edupulse-backend/internal/record"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := record.NewSQLStore(dbh, cfg.DBDriver)

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.AdminUser, cfg.AdminPassHash)
	m := metrics.NewManager()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(api.Instrument(m))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc))
	}

	// Read endpoints are open; the maintenance endpoint (and writes, when
	// local auth is on) require a bearer token.
	r.Get("/fetch_data", api.FetchDataHandler(store))
	r.Get("/fetch_averages", api.FetchAveragesHandler(store))

	r.Group(func(pr chi.Router) {
		if cfg.EnableLocalAuth {
			pr.Use(auth.JWTMiddleware(authSvc))
		}
		pr.Post("/save_performance", api.SavePerformanceHandler(store, m))
		pr.Post("/recalculate_totals", api.RecalculateTotalsHandler(store, m))
	})

	r.Get("/healthz", api.HealthHandler())
	if cfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-runCtx.Done()
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := dbh.Close(); err != nil {
		log.Printf("db close: %v", err)
	}
}
