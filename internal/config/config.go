// Package config loads orchestrator configuration from the environment,
// with CLI flags (wired in cmd/orchestrator) taking precedence over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Host string
	Port int

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisSSL      bool

	StateFile  string
	ResetState bool
	Debug      bool

	OutputsDir       string
	SnapshotInterval time.Duration

	HeartbeatTimeout        time.Duration
	HealthCheckInterval     time.Duration
	JobTimeoutCheckInterval time.Duration
	DefaultJobTimeoutSeconds int
	ResultsPollTimeout      time.Duration

	RetryMaxAttempts       int
	RetryInitialDelay      time.Duration
	RetryBackoffMultiplier float64
	RetryMaxDelay          time.Duration
	RetryJitter            bool
}

func Load() Config {
	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Host: getEnv("HOST", "0.0.0.0"),
		Port: getEnvInt("PORT", 8080),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisSSL:      getEnvBool("REDIS_SSL", false),

		StateFile:  getEnv("STATE_FILE", "orchestrator_state.json"),
		ResetState: getEnvBool("RESET_STATE", false),
		Debug:      getEnvBool("DEBUG", false),

		OutputsDir:       getEnv("OUTPUTS_DIR", "outputs"),
		SnapshotInterval: getEnvDuration("SNAPSHOT_INTERVAL", 30*time.Second),

		HeartbeatTimeout:         getEnvDuration("HEARTBEAT_TIMEOUT", 60*time.Second),
		HealthCheckInterval:      getEnvDuration("HEALTH_CHECK_INTERVAL", 10*time.Second),
		JobTimeoutCheckInterval:  getEnvDuration("JOB_TIMEOUT_CHECK_INTERVAL", 5*time.Second),
		DefaultJobTimeoutSeconds: getEnvInt("DEFAULT_JOB_TIMEOUT_SECONDS", 3600),
		ResultsPollTimeout:       getEnvDuration("RESULTS_POLL_TIMEOUT", 1*time.Second),

		RetryMaxAttempts:       getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelay:      getEnvDuration("RETRY_INITIAL_DELAY", 1*time.Second),
		RetryBackoffMultiplier: getEnvFloat("RETRY_BACKOFF_MULTIPLIER", 2.0),
		RetryMaxDelay:          getEnvDuration("RETRY_MAX_DELAY", 300*time.Second),
		RetryJitter:            getEnvBool("RETRY_JITTER", true),
	}
}

// RedisAddr joins host and port into the net.Dial-style address go-redis
// expects.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: invalid int for %s: %v\n", key, err)
			return fallback
		}
		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: invalid float for %s: %v\n", key, err)
			return fallback
		}
		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: invalid bool for %s: %v\n", key, err)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: invalid duration for %s: %v\n", key, err)
			return fallback
		}
		return d
	}
	return fallback
}
