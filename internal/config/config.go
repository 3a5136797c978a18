package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress           string
	DatabaseURI          string
	StripeWebhookSecret  string
	CreemWebhookSecret   string
	CheckoutAPIAddress   string
	CheckoutAPIKey       string
	EmailAPIAddress      string
	EmailAPIKey          string
	EmailFrom            string
	PaySuccessURL        string
	AuthSecret           string
	RecoveryPollInterval time.Duration
	RecoveryBatchSize    int
	WorkerPoolSize       int
	SideEffectTimeout    time.Duration
	ShutdownTimeout      time.Duration
}

const (
	defaultRunAddress        = ":8080"
	defaultAuthSecret        = "change-me-in-production"
	defaultEmailAPIAddress   = "https://api.resend.com"
	defaultEmailFrom         = "noreply@shipfire.app"
	defaultPaySuccessURL     = "/"
	defaultPollInterval      = 30 * time.Second
	defaultRecoveryBatchSize = 32
	defaultWorkerPoolSize    = 4
	defaultSideEffectTimeout = 10 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		StripeWebhookSecret:  getString(lookup, "STRIPE_WEBHOOK_SECRET", ""),
		CreemWebhookSecret:   getString(lookup, "CREEM_WEBHOOK_SECRET", ""),
		CheckoutAPIAddress:   getString(lookup, "CHECKOUT_API_ADDRESS", ""),
		CheckoutAPIKey:       getString(lookup, "CHECKOUT_API_KEY", ""),
		EmailAPIAddress:      getString(lookup, "EMAIL_API_ADDRESS", defaultEmailAPIAddress),
		EmailAPIKey:          getString(lookup, "EMAIL_API_KEY", ""),
		EmailFrom:            getString(lookup, "EMAIL_FROM", defaultEmailFrom),
		PaySuccessURL:        getString(lookup, "PAY_SUCCESS_URL", defaultPaySuccessURL),
		AuthSecret:           getString(lookup, "AUTH_SECRET", defaultAuthSecret),
		RecoveryPollInterval: getDuration(lookup, "RECOVERY_POLL_INTERVAL", defaultPollInterval),
		RecoveryBatchSize:    getInt(lookup, "RECOVERY_BATCH_SIZE", defaultRecoveryBatchSize),
		WorkerPoolSize:       getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		SideEffectTimeout:    getDuration(lookup, "SIDE_EFFECT_TIMEOUT", defaultSideEffectTimeout),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("payflow", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr      = cfg.RecoveryPollInterval.String()
		sideEffectTimeoutStr = cfg.SideEffectTimeout.String()
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.CheckoutAPIAddress, "checkout-api", cfg.CheckoutAPIAddress, "Checkout session API base URL (empty disables the recovery poller)")
	fs.StringVar(&cfg.PaySuccessURL, "success-url", cfg.PaySuccessURL, "Destination for payment success redirects")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret for signing auth tokens")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent recovery workers")
	fs.IntVar(&cfg.RecoveryBatchSize, "poll-batch", cfg.RecoveryBatchSize, "Maximum orders per recovery batch")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between recovery polls")
	fs.StringVar(&sideEffectTimeoutStr, "side-effect-timeout", sideEffectTimeoutStr, "Timeout for each post-payment side effect")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.RecoveryPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.SideEffectTimeout, err = time.ParseDuration(sideEffectTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid side effect timeout: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("AUTH_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read auth secret file: %w", err)
		}
		cfg.AuthSecret = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.RecoveryBatchSize <= 0 {
		cfg.RecoveryBatchSize = defaultRecoveryBatchSize
	}

	if cfg.RecoveryPollInterval <= 0 {
		cfg.RecoveryPollInterval = defaultPollInterval
	}

	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = defaultSideEffectTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
