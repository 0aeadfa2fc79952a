package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/baitline/baitline/pkg/config"
	"github.com/baitline/baitline/pkg/honeypot"
	"github.com/baitline/baitline/pkg/intel"
	"github.com/baitline/baitline/pkg/session"
	"github.com/baitline/baitline/pkg/signals"
	"github.com/baitline/baitline/pkg/telemetry"
)

const Version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Optional .env for local development; absence is fine.
	if err := godotenv.Load(); err == nil {
		log.Println("[STARTUP] loaded .env")
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		port := "3000"
		if len(os.Args) > 2 {
			port = os.Args[2]
		}
		runHTTPServer(port)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: baitline scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Baitline v%s\n", Version)
		fmt.Println("Conversational scam-baiting engine")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Baitline v%s - Conversational scam-baiting engine\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  baitline serve [port]   Start HTTP server (default: 3000)")
	fmt.Println("  baitline scan <text>    Score a single message offline")
	fmt.Println("  baitline version        Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  baitline serve 8080")
	fmt.Println("  baitline scan \"urgent: your account is blocked, pay now\"")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  BAITLINE_API_KEY        API key required on POST /honeypot (empty disables auth)")
	fmt.Println("  BAITLINE_CALLBACK_URL   Finalization report endpoint (empty disables reporting)")
	fmt.Println("  BAITLINE_STORE          Session store backend: memory or redis")
	fmt.Println("  BAITLINE_REDIS_ADDR     host:port for the redis backend")
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

// turnRequest is the inbound body for POST /honeypot.
type turnRequest struct {
	SessionID string           `json:"sessionId"`
	Message   honeypot.Message `json:"message"`
}

func runHTTPServer(port string) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("[STARTUP] session store: %v", err)
	}

	engine := honeypot.NewEngine(cfg, store)
	defer engine.Close()

	// Sample store occupancy into the sessions gauge.
	if ms, ok := store.(*session.MemoryStore); ok {
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				telemetry.SessionsActive.Set(float64(ms.Stats().SessionCount))
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName: "Baitline",
	})

	app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "baitline",
			"status":  "active",
			"version": Version,
		})
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	app.Post("/honeypot", func(c fiber.Ctx) error {
		if cfg.APIKey != "" && c.Get("X-API-Key") != cfg.APIKey {
			return c.Status(401).JSON(fiber.Map{"error": "invalid API key"})
		}

		var req turnRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}

		result, err := engine.HandleTurn(c.Context(), req.SessionID, req.Message)
		if err != nil {
			if errors.Is(err, honeypot.ErrEmptySessionID) || errors.Is(err, honeypot.ErrEmptyMessage) {
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
			log.Printf("[TURN] session %s: %v", req.SessionID, err)
			return c.Status(500).JSON(fiber.Map{"error": "turn failed"})
		}

		return c.JSON(fiber.Map{
			"status":                "success",
			"sessionId":             result.SessionID,
			"scamDetected":          result.ScamDetected,
			"riskScore":             result.RiskScore,
			"totalMessages":         result.TotalMessages,
			"tacticsDetected":       result.TacticsDetected,
			"agentStrategy":         result.AgentStrategy,
			"extractedIntelligence": result.ExtractedIntelligence,
			"reply":                 result.Reply,
		})
	})

	log.Printf("[STARTUP] Baitline HTTP server starting on :%s (store: %s)", port, cfg.StoreBackend)
	log.Printf("Endpoints:")
	log.Printf("  GET  /          - Service status")
	log.Printf("  GET  /health    - Health check")
	log.Printf("  GET  /metrics   - Prometheus metrics")
	log.Printf("  POST /honeypot  - Handle a conversation turn")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}

// newStore builds the session store named by the configuration.
func newStore(cfg *config.Config) (session.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Printf("[STARTUP] redis session store at %s", cfg.RedisAddr)
		return session.NewRedisStore(rdb, session.WithRedisTTL(cfg.SessionTTL)), nil
	case config.BackendMemory, "":
		return session.NewMemoryStore(
			session.WithTTL(cfg.SessionTTL),
			session.WithSweepInterval(cfg.SweepInterval),
		), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// ============================================================================
// CLI Scan Mode
// ============================================================================

func runCLIScan(text string) {
	cfg := config.NewDefaultConfig()
	detector := signals.NewDetectorFromFile(cfg.TaxonomyPath)

	tactics, score := detector.Detect(text)
	bundle := intel.Extract(text)

	fmt.Printf("Text:    %s\n", text)
	fmt.Printf("Score:   %d/100\n", score)
	fmt.Printf("Tactics: %s\n", strings.Join(signals.Strings(tactics), ", "))
	if len(bundle.PaymentIDs) > 0 {
		fmt.Printf("Payment IDs:   %s\n", strings.Join(bundle.PaymentIDs, ", "))
	}
	if len(bundle.Links) > 0 {
		fmt.Printf("Links:         %s\n", strings.Join(bundle.Links, ", "))
	}
	if len(bundle.Phones) > 0 {
		fmt.Printf("Phones:        %s\n", strings.Join(bundle.Phones, ", "))
	}
	if len(bundle.BankAccounts) > 0 {
		fmt.Printf("Bank accounts: %s\n", strings.Join(bundle.BankAccounts, ", "))
	}
	if len(bundle.BankNames) > 0 {
		fmt.Printf("Bank names:    %s\n", strings.Join(bundle.BankNames, ", "))
	}
	if score > cfg.ConfirmThreshold {
		fmt.Println("Verdict: SCAM")
	} else {
		fmt.Println("Verdict: inconclusive")
	}
}
