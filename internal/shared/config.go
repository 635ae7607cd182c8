package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"itinerary_pricing/internal/domain"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	BuilderBase string
	BuilderKey  string
	BuilderRPS  int
	AMQPURL     string
	Workers     int
	CacheTTL    time.Duration

	MaxHotelOptions int
	RateLimitRPS    int
	RateLimitBurst  int

	// House defaults seeding a package that has never been priced.
	Defaults domain.Rates
}

// Load reads configuration from the environment. A .env file in the working directory,
// if present, fills in variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be read")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		LogLevel:        env("LOG_LEVEL", "info"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/crm?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		BuilderBase:     env("BUILDER_BASE_URL", "http://localhost:8000/api"),
		BuilderKey:      env("BUILDER_API_KEY", ""),
		BuilderRPS:      atoi("BUILDER_RPS", 10),
		AMQPURL:         env("AMQP_URL", ""),
		Workers:         atoi("RECONCILE_WORKERS", 8),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		MaxHotelOptions: atoi("MAX_HOTEL_OPTIONS", domain.DefaultMaxHotelOptions),
		RateLimitRPS:    atoi("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  atoi("RATE_LIMIT_BURST", 40),
		Defaults: domain.Rates{
			BaseMarkup:  dec("DEFAULT_BASE_MARKUP"),
			ExtraMarkup: dec("DEFAULT_EXTRA_MARKUP"),
			CGST:        dec("DEFAULT_CGST"),
			SGST:        dec("DEFAULT_SGST"),
			IGST:        dec("DEFAULT_IGST"),
			TCS:         dec("DEFAULT_TCS"),
			Discount:    dec("DEFAULT_DISCOUNT"),
		},
	}
	if c.BuilderKey == "" {
		log.Warn().Msg("BUILDER_API_KEY is empty")
	}
	if c.AMQPURL == "" {
		log.Warn().Msg("AMQP_URL is empty; pricing events will not be published")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func dec(k string) decimal.Decimal {
	v := os.Getenv(k)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using 0")
		return decimal.Zero
	}
	return d
}
