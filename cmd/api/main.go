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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/mentor-bookings/internal/http/handlers"
	"github.com/diagnosis/mentor-bookings/internal/lock"
	"github.com/diagnosis/mentor-bookings/internal/notify"
	"github.com/diagnosis/mentor-bookings/internal/repository"
	"github.com/diagnosis/mentor-bookings/internal/service"
	"github.com/diagnosis/mentor-bookings/pkg/config"
	"github.com/diagnosis/mentor-bookings/pkg/database"
	"github.com/diagnosis/mentor-bookings/pkg/events"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
	"github.com/diagnosis/mentor-bookings/pkg/mailer"
	mw "github.com/diagnosis/mentor-bookings/pkg/middleware"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Mentor bookings service error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, cfg.Server.LogLevel))
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	// Redis backs the idempotency store and, when selected, the slot locks.
	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		if cfg.Booking.LockBackend == config.LockRedis {
			return err
		}
		logger.Warn("Redis unavailable, idempotency keys disabled", "error", err)
	} else {
		defer rdb.Close()
	}

	var bus events.EventBus = events.NopBus{}
	if cfg.NATS.Enabled {
		nbus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nbus.Close()
		bus = nbus
	}

	directoryRepo := repository.NewDirectoryRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	var locker lock.SlotLocker = lock.NewLocalLocker()
	var idem mw.IdempotencyStore
	if rdb != nil {
		idem = repository.NewRedisIdempotencyStore(rdb)
		if cfg.Booking.LockBackend == config.LockRedis {
			locker = lock.NewRedisLocker(rdb, cfg.Booking.LockTTL)
		}
	}
	logger.Info("Slot locking configured", "backend", cfg.Booking.LockBackend, "idempotency", idem != nil)

	allocator := service.NewAllocator(directoryRepo, bookingRepo, locker, cfg.Booking.AllocationTimeout)
	bookingService := service.NewBookingService(allocator, bookingRepo, bus)
	directoryService := service.NewDirectoryService(directoryRepo)

	mail := mailer.New(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail, cfg.Email.DevMode)
	if err := notify.New(bus, directoryRepo, mail, cfg.Email.NotifyTo).Start(); err != nil {
		return err
	}

	h := handlers.New(directoryService, bookingService, cfg, idem)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("mentor-bookings"))
	r.Use(mw.Logging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)
	r.Mount("/v1", h.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting mentor bookings service", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down mentor bookings service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
