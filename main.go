package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"

	"fitcomp/config"
	"fitcomp/database"
	"fitcomp/evidence"
	"fitcomp/handlers"
	"fitcomp/live"
	"fitcomp/logging"
	"fitcomp/metrics"
	"fitcomp/middleware"
	"fitcomp/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("FITCOMP_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("fitcomp", "").Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("fitcomp", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Veritabanı bağlantısı
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.InitDB(ctx, db); err != nil {
		logger.Error("schema init failed", "error", err)
		os.Exit(1)
	}
	store := database.NewStore(db)

	m := metrics.New()
	loc := cfg.Location()

	boards := services.NewLeaderboardService(store, store, services.Deps{Location: loc, Logger: logger, Metrics: m})
	hub := live.NewHub(boards, cfg.Live.RefreshInterval.Duration, logger, m)
	go hub.Run(ctx)

	deps := services.Deps{
		Location: loc,
		Logger:   logger,
		Metrics:  m,
		Notifier: hub,
	}
	var avatars handlers.AvatarUploader
	if uploader, err := evidence.NewCloudinaryUploader(cfg.Cloudinary); err == nil {
		deps.Uploader = uploader
		avatars = uploader
	} else {
		logger.Warn("evidence uploads disabled", "reason", err)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.Auth.SessionKey))
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.Env == "production"

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, m)
	if err := limiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
		logger.Error("invalid rate_limit.trusted_proxies", "error", err)
		os.Exit(1)
	}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep(10 * time.Minute)
			}
		}
	}()

	router := handlers.NewRouter(handlers.Deps{
		Competitions:   services.NewCompetitionService(store, deps),
		Submissions:    services.NewSubmissionService(store, store, deps),
		Leaderboards:   boards,
		Users:          store,
		Avatars:        avatars,
		Sessions:       sessionStore,
		Auth:           handlers.AuthSettings{Secret: []byte(cfg.Auth.JWTSecret), TTL: cfg.Auth.TokenTTL.Duration},
		Hub:            hub,
		Location:       loc,
		Metrics:        m,
		Logger:         logger,
		DB:             db,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Sunucuyu başlat
	srv := &http.Server{
		Handler:           middleware.CORS(cfg.CORS.AllowedOrigins, router),
		Addr:              cfg.Listen,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Listen, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
