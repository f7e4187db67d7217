package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/config"
	"github.com/iliyamo/advocate-booking/internal/database"
	"github.com/iliyamo/advocate-booking/internal/handler"
	"github.com/iliyamo/advocate-booking/internal/middleware"
	"github.com/iliyamo/advocate-booking/internal/monitoring"
	"github.com/iliyamo/advocate-booking/internal/payment"
	"github.com/iliyamo/advocate-booking/internal/queue"
	"github.com/iliyamo/advocate-booking/internal/repository"
	"github.com/iliyamo/advocate-booking/internal/router"
	"github.com/iliyamo/advocate-booking/internal/service"
	"github.com/iliyamo/advocate-booking/internal/storage"
)

func newLogger(dev bool) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if dev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewExample()
	}
	return log
}

func main() {
	_ = godotenv.Load() // .env is optional outside local development

	cfg := config.Load() // Load environment config
	log := newLogger(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	flush, err := monitoring.InitSentry(cfg.SentryDSN, cfg.Env)
	if err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()
	monitoring.Init()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		log.Info("schema applied")
	}

	rdb, err := config.NewRedisClient(context.Background(), config.LoadRedisConfig())
	if err != nil {
		log.Warn("rate limiting and caching disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	blobs, err := storage.NewLocalStore(cfg.MediaRoot)
	if err != nil {
		log.Fatal("media root", zap.String("path", cfg.MediaRoot), zap.Error(err))
	}

	var events service.EventPublisher = queue.Discard{}
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL, log.Named("queue"))
	}

	// A nil *Razorpay inside the interface would defeat the service's
	// disabled check, so the interface stays nil when payments are off.
	var gateway service.Gateway
	if cfg.PaymentsEnabled() {
		gateway = payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL)
	}

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewProfileRepo(db)
	bookings := repository.NewBookingRepo(db)
	reviews := repository.NewReviewRepo(db)
	docs := repository.NewDocumentRepo(db)
	payments := repository.NewPaymentRepo(db)

	ids := service.NewIdentityService(accounts, tokens, service.IdentityConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
		RequirePayment: cfg.PaymentsEnabled(),
	}, log.Named("identity"))
	bookingSvc := service.NewBookingService(accounts, profiles, bookings, docs, reviews, events, log.Named("booking"))
	reviewSvc := service.NewReviewService(reviews, events, log.Named("review"))
	profileSvc := service.NewProfileService(profiles, reviews, cfg.PaymentsEnabled(), log.Named("profile"))
	docSvc := service.NewDocumentService(bookings, docs, blobs, cfg.MaxUploadBytes, log.Named("document"))
	paymentSvc := service.NewPaymentService(payments, gateway, cfg.AdvocateFee, events, log.Named("payment"))

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(middleware.Metrics())
	e.Use(middleware.Sentry())

	hlog := log.Named("handler")
	router.Register(e, router.Handlers{
		Health:    handler.Health(db),
		Metrics:   monitoring.Handler(),
		Auth:      handler.NewAuthHandler(ids, hlog),
		Advocates: handler.NewAdvocateHandler(ids, profileSvc, hlog),
		Bookings:  handler.NewBookingHandler(ids, bookingSvc, reviewSvc, hlog),
		Documents: handler.NewDocumentHandler(ids, docSvc, hlog),
		Payments:  handler.NewPaymentHandler(ids, paymentSvc, cfg.RazorpayKeyID, hlog),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit")),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log.Named("cache")),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RabbitURL != "" {
		queue.StartEventConsumer(ctx, cfg.RabbitURL, "logs", log.Named("consumer"))
	}

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}
