package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/arturoeanton/go-gitstat/internal/adapter/store"
	"github.com/arturoeanton/go-gitstat/internal/adapter/vcs"
	"github.com/arturoeanton/go-gitstat/internal/handler"
	"github.com/arturoeanton/go-gitstat/internal/middleware"
	"github.com/arturoeanton/go-gitstat/internal/service"
	"github.com/arturoeanton/go-gitstat/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting gitstat",
		"port", cfg.Port,
		"redis", cfg.RedisAddr,
		"repos", cfg.ReposBasePath,
	)

	if err := os.MkdirAll(cfg.ReposBasePath, 0o755); err != nil {
		slog.Error("failed to create repos directory", "error", err)
		os.Exit(1)
	}

	// ── Record store ─────────────────────────────────────────────────────
	recordStore, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer recordStore.Close()

	// ── Audit store (optional) ───────────────────────────────────────────
	var auditWriter middleware.AuditWriter = middleware.LogAuditWriter{}
	var auditStore *store.AuditStore
	if cfg.AuditDatabaseURL != "" {
		auditStore, err = store.NewAuditStore(cfg.AuditDatabaseURL)
		if err != nil {
			slog.Error("failed to connect to audit database", "error", err)
			os.Exit(1)
		}
		defer auditStore.Close()
		auditWriter = auditStore
	}

	// ── Adapters & services ──────────────────────────────────────────────
	gitVCS := vcs.NewGitProvider(cfg.GitBin)
	events := handler.NewRepoEventBus()

	registry := service.NewRegistry(recordStore)
	lifecycle := service.NewLifecycle(recordStore, gitVCS, cfg.ReposBasePath, events)
	removal := service.NewRemoval(recordStore, cfg.ReposBasePath)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())
	app.Use(middleware.AuditMiddleware(auditWriter))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	repoHandler := handler.NewRepoHandler(registry, lifecycle, removal, recordStore, events)
	repoHandler.Register(app)

	if auditStore != nil {
		auditHandler := handler.NewAuditHandler(auditStore)
		auditHandler.Register(app.Group("/api/v1"))
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
