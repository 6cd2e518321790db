package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
)

// Settings read once at startup. Zero values fall back to the package
// defaults of the component they configure.
type Settings struct {
	MongoURL       string
	MongoDB        string
	PostgresURL    string
	NATSURL        string
	StreamMaxAge   time.Duration
	RedisURL       string
	SessionSecret  string
	SessionTTL     time.Duration
	RatePerMinute  int
	RateBurst      int
	WriteAttempts  int
	IdempotencyTTL time.Duration
	Timezone       string
	Instance       string
	DemoSeeding    bool
}

func LoadSettings(config *apt.Config) Settings {
	return Settings{
		MongoURL:       config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017"),
		MongoDB:        config.GetStringOrDef("db.mongo.name", "payper"),
		PostgresURL:    config.GetStringOrDef("db.postgres.url", ""),
		NATSURL:        config.GetStringOrDef("nats.url", "nats://localhost:4222"),
		StreamMaxAge:   durationOr(config.GetStringOrDef("nats.stream.maxage", ""), 7*24*time.Hour),
		RedisURL:       config.GetStringOrDef("redis.url", ""),
		SessionSecret:  config.GetStringOrDef("session.secret", ""),
		SessionTTL:     durationOr(config.GetStringOrDef("session.ttl", ""), 15*time.Minute),
		RatePerMinute:  intOr(config.GetStringOrDef("session.rate.per_minute", ""), 30),
		RateBurst:      intOr(config.GetStringOrDef("session.rate.burst", ""), 5),
		WriteAttempts:  intOr(config.GetStringOrDef("orders.write.attempts", ""), 3),
		IdempotencyTTL: durationOr(config.GetStringOrDef("idempotency.ttl", ""), 24*time.Hour),
		Timezone:       config.GetStringOrDef("timezone", "UTC"),
		Instance:       config.GetStringOrDef("instance.id", ""),
		DemoSeeding:    boolOr(config.GetStringOrDef("seeding.demo", ""), false),
	}
}

func durationOr(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func intOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func boolOr(raw string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return b
}
