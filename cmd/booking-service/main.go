package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"transit-ticketing/internal/api"
	"transit-ticketing/internal/auth"
	"transit-ticketing/internal/booking"
	bookingdb "transit-ticketing/internal/booking/db"
	bookingredis "transit-ticketing/internal/booking/redis"
	"transit-ticketing/internal/catalog"
	"transit-ticketing/internal/config"
	"transit-ticketing/internal/database/migrations"
	"transit-ticketing/internal/kafka"
	"transit-ticketing/internal/logger"
	"transit-ticketing/internal/money"
	"transit-ticketing/internal/payment"
	paymentdb "transit-ticketing/internal/payment/db"
	"transit-ticketing/internal/payment/gateway"
	"transit-ticketing/internal/tickets"
	"transit-ticketing/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	// --- PostgreSQL Setup ---
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	log.Info("DATABASE", "Connected to Postgres")

	// Run migrations
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s", cfg.Redis.Addr))

	// --- Kafka Setup ---
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		topics := []string{
			cfg.Kafka.Topics.BookingCreated,
			cfg.Kafka.Topics.BookingCancelled,
			cfg.Kafka.Topics.PaymentCompleted,
			cfg.Kafka.Topics.PaymentFailed,
			cfg.Kafka.Topics.PaymentRefunded,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation failed (continuing): %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		log.Info("KAFKA", fmt.Sprintf("Producer ready for brokers %v", cfg.Kafka.Brokers))
	} else {
		log.Warn("KAFKA", "Kafka disabled, events will not be published")
	}

	serviceFee, err := money.Parse(cfg.Booking.ServiceFee)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid BOOKING_SERVICE_FEE %q: %v", cfg.Booking.ServiceFee, err))
	}

	// --- Initialize Dependencies ---
	catalogDB := &catalog.DB{Bun: bunDB}
	bookingDB := &bookingdb.DB{Bun: bunDB}
	paymentDB := &paymentdb.DB{Bun: bunDB}
	holds := bookingredis.NewHolds(redisClient, cfg.Booking.SeatHoldTTL)

	if os.Getenv("SEED_CATALOG") == "true" {
		if err := catalog.Seed(ctx, catalogDB); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Catalog seeding failed: %v", err))
		}
		log.Info("DATABASE", "Catalog seeded with sample routes and schedules")
	}

	var gw gateway.Gateway
	switch cfg.Gateway.Mode {
	case "stripe":
		gw, err = gateway.NewStripeGateway(log)
		if err != nil {
			log.Fatal("PAYMENT", fmt.Sprintf("Stripe gateway setup failed: %v", err))
		}
	default:
		gw = gateway.NewStub(cfg.Gateway.StubApproves)
	}
	log.Info("PAYMENT", fmt.Sprintf("Payment gateway: %s", gw.Name()))

	var publisher booking.Publisher
	if producer != nil {
		publisher = producer
	}

	bookingService := booking.NewService(bookingDB, catalogDB, holds, publisher, log,
		booking.Topics{
			BookingCreated:   cfg.Kafka.Topics.BookingCreated,
			BookingCancelled: cfg.Kafka.Topics.BookingCancelled,
		}, serviceFee)

	var paymentPublisher payment.Publisher
	if producer != nil {
		paymentPublisher = producer
	}
	paymentService := payment.NewService(paymentDB, bookingDB, catalogDB, gw, paymentPublisher, log,
		payment.Topics{
			PaymentCompleted: cfg.Kafka.Topics.PaymentCompleted,
			PaymentFailed:    cfg.Kafka.Topics.PaymentFailed,
			PaymentRefunded:  cfg.Kafka.Topics.PaymentRefunded,
		}, serviceFee, cfg.Gateway.Timeout)

	ticketGen := tickets.NewGenerator(os.Getenv("TICKET_SECRET"))
	handler := api.NewHandler(bookingService, catalogDB, ticketGen, log)
	paymentHandler := api.NewPaymentHandler(paymentService, log)

	// --- Setup Router ---
	r := chi.NewRouter()
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Post("/api/v1/bookings", handler.CreateBooking)
		r.Get("/api/v1/bookings", handler.ListBookings)
		r.Get("/api/v1/bookings/{bookingId}", handler.GetBooking)
		r.Delete("/api/v1/bookings/{bookingId}", handler.CancelBooking)
		r.Get("/api/v1/bookings/{bookingId}/boarding-pass", handler.GetBoardingPass)

		r.Get("/api/v1/schedules/{scheduleId}", handler.GetSchedule)
		r.Get("/api/v1/schedules/{scheduleId}/seats", handler.ListScheduleSeats)

		// Payment endpoints run on a gin engine mounted under the same
		// OIDC middleware.
		r.Mount("/api/v1/payments", http.StripPrefix("/api/v1/payments", paymentHandler.Router()))
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Booking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received, cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SERVER", "Server exited gracefully")
}

// requestLogger emits one line per request with method, path, status and
// latency.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &utils.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", ww.Status), time.Since(start).String())
		})
	}
}
