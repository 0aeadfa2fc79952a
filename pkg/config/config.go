package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects the session store implementation
type StoreBackend string

const (
	BackendMemory StoreBackend = "memory" // In-process sharded map (default)
	BackendRedis  StoreBackend = "redis"  // Redis-backed, for multi-node deployments
)

// Config holds global settings for the Baitline engine.
// All settings can be configured via environment variables or programmatically.
//
// Every threshold the engine consults lives here so the same value cannot
// silently diverge between the detector, the state machine, and the selector.
type Config struct {
	// === Core Settings ===
	APIKey string // API key required on inbound turns (env: BAITLINE_API_KEY; empty disables auth)

	// === Engagement Thresholds ===
	ConfirmThreshold   int // Single-turn score above this confirms an active scam (default: 40)
	ExtractThreshold   int // Session risk at or above this switches from stalling to extraction (default: 70)
	MinEngagementTurns int // Minimum messages before the finalization report may fire (default: 6)

	// === Finalization Callback ===
	CallbackURL       string        // Outbound report endpoint (empty disables reporting)
	CallbackTimeout   time.Duration // Per-report timeout (default: 5s)
	MaxInflightReport int           // Cap on concurrent outbound reports (default: 8)

	// === Session Store ===
	StoreBackend  StoreBackend  // "memory" or "redis" (default: memory)
	RedisAddr     string        // host:port for the redis backend
	RedisPassword string        // Redis AUTH password (optional)
	RedisDB       int           // Redis logical database (default: 0)
	SessionTTL    time.Duration // Idle time before a session is swept (default: 1 hour)
	SweepInterval time.Duration // How often the memory store sweeps (default: 5 minutes)

	// === Vocabulary Overrides ===
	TaxonomyPath  string // Optional YAML file overriding the signal taxonomy
	ReplyBankPath string // Optional YAML file overriding the persona reply bank

	// === Presentation ===
	ReplySeed int64 // Seed for reply-line selection; 0 seeds from the clock
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		APIKey: GetEnv("BAITLINE_API_KEY", ""),

		ConfirmThreshold:   clampInt(GetEnvInt("BAITLINE_CONFIRM_THRESHOLD", 40), 0, 100),
		ExtractThreshold:   clampInt(GetEnvInt("BAITLINE_EXTRACT_THRESHOLD", 70), 0, 100),
		MinEngagementTurns: clampInt(GetEnvInt("BAITLINE_MIN_ENGAGEMENT_TURNS", 6), 1, 1000),

		CallbackURL:       GetEnv("BAITLINE_CALLBACK_URL", ""),
		CallbackTimeout:   time.Duration(GetEnvInt("BAITLINE_CALLBACK_TIMEOUT_MS", 5000)) * time.Millisecond,
		MaxInflightReport: clampInt(GetEnvInt("BAITLINE_MAX_INFLIGHT_REPORTS", 8), 1, 256),

		StoreBackend:  StoreBackend(GetEnv("BAITLINE_STORE", string(BackendMemory))),
		RedisAddr:     GetEnv("BAITLINE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetEnv("BAITLINE_REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("BAITLINE_REDIS_DB", 0),
		SessionTTL:    time.Duration(GetEnvInt("BAITLINE_SESSION_TTL_SECONDS", 3600)) * time.Second,
		SweepInterval: time.Duration(GetEnvInt("BAITLINE_SWEEP_INTERVAL_SECONDS", 300)) * time.Second,

		TaxonomyPath:  GetEnv("BAITLINE_TAXONOMY_PATH", ""),
		ReplyBankPath: GetEnv("BAITLINE_REPLY_BANK_PATH", ""),

		ReplySeed: int64(GetEnvInt("BAITLINE_REPLY_SEED", 0)),
	}
}

// NewAggressiveConfig lowers the engagement thresholds so the persona
// commits to extraction earlier. Useful against high-volume, low-effort
// campaigns where attackers disengage after a few messages.
func NewAggressiveConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ConfirmThreshold = 25
	cfg.ExtractThreshold = 50
	cfg.MinEngagementTurns = 4
	return cfg
}

// NewPatientConfig raises thresholds and engagement length for slow-burn
// scams (romance, investment) where intelligence accumulates over many turns.
func NewPatientConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ExtractThreshold = 80
	cfg.MinEngagementTurns = 10
	return cfg
}

// Validate checks configuration consistency. Call at startup before serving.
func (c *Config) Validate() error {
	var problems []string

	if c.ConfirmThreshold < 0 || c.ConfirmThreshold > 100 {
		problems = append(problems, fmt.Sprintf("confirm threshold %d outside [0,100]", c.ConfirmThreshold))
	}
	if c.ExtractThreshold < c.ConfirmThreshold {
		problems = append(problems, fmt.Sprintf("extract threshold %d below confirm threshold %d", c.ExtractThreshold, c.ConfirmThreshold))
	}
	if c.MinEngagementTurns < 1 {
		problems = append(problems, "minimum engagement turns must be at least 1")
	}
	if c.CallbackURL != "" {
		if _, err := url.ParseRequestURI(c.CallbackURL); err != nil {
			problems = append(problems, fmt.Sprintf("callback URL unparseable: %v", err))
		}
	}
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	default:
		problems = append(problems, fmt.Sprintf("unknown store backend %q", c.StoreBackend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	if c.APIKey == "" {
		log.Printf("[STARTUP] Warning: BAITLINE_API_KEY not set - inbound auth is disabled")
	}
	if c.CallbackURL == "" {
		log.Printf("[STARTUP] Warning: BAITLINE_CALLBACK_URL not set - finalization reports are disabled")
	}
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing
// These are exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
