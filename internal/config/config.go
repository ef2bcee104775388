package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Booking  BookingConfig
	Gateway  GatewayConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	BookingCreated   string
	BookingCancelled string
	PaymentCompleted string
	PaymentFailed    string
	PaymentRefunded  string
}

type BookingConfig struct {
	// ServiceFee is the fixed additive charge per booking, parsed once at
	// startup into a canonical decimal.
	ServiceFee  string
	SeatHoldTTL time.Duration
}

type GatewayConfig struct {
	// Mode selects the payment gateway implementation: "stub" or "stripe".
	Mode    string
	Timeout time.Duration
	// StubApproves fixes the stub gateway outcome for local runs.
	StubApproves bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "transit_user"),
			Password:     getEnv("DB_PASSWORD", "transit_pass"),
			Database:     getEnv("DB_NAME", "transit_ticketing"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				BookingCreated:   getEnv("KAFKA_TOPIC_BOOKING_CREATED", "booking-created"),
				BookingCancelled: getEnv("KAFKA_TOPIC_BOOKING_CANCELLED", "booking-cancelled"),
				PaymentCompleted: getEnv("KAFKA_TOPIC_PAYMENT_COMPLETED", "payment-completed"),
				PaymentFailed:    getEnv("KAFKA_TOPIC_PAYMENT_FAILED", "payment-failed"),
				PaymentRefunded:  getEnv("KAFKA_TOPIC_PAYMENT_REFUNDED", "payment-refunded"),
			},
		},
		Booking: BookingConfig{
			ServiceFee:  getEnv("BOOKING_SERVICE_FEE", "2.00"),
			SeatHoldTTL: time.Duration(getEnvInt("SEAT_HOLD_TTL_MINUTES", 5)) * time.Minute,
		},
		Gateway: GatewayConfig{
			Mode:         getEnv("PAYMENT_GATEWAY", "stub"),
			Timeout:      time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,
			StubApproves: getEnvBool("STUB_GATEWAY_APPROVES", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
