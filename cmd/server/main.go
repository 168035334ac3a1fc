package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/cache"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/config"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/handler"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/logger"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/middleware"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/provider"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/remnawave"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/repository"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/service"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	// Create services
	memCache := cache.New(5 * time.Minute)
	ratesSvc := service.NewRatesService()
	panelClient := remnawave.NewClient(cfg.Panel, zlog)
	syncWorker := service.NewSyncWorker(cfg.BotAPI, zlog)

	ledger := service.NewLedger(repo, ratesSvc, zlog)
	fulfillment := service.NewFulfillment(repo, ratesSvc, panelClient, memCache, syncWorker, cfg.Panel.DefaultSquadID, zlog)
	dispatcher := service.NewDispatcher(ledger, fulfillment, zlog)
	liveSvc := service.NewLiveService(repo, panelClient, memCache, 2*time.Minute)
	plategaProvider := provider.NewPlatega(cfg.Platega, zlog)

	// Create Telegram bot (optional; webhooks still work without it)
	var bot *telegram.Bot
	var preCheckout handler.PreCheckoutAnswerer
	if cfg.Telegram.BotToken != "" {
		bot, err = telegram.NewBot(cfg.Telegram, zlog)
		if err != nil {
			zlog.Warn("Failed to create Telegram bot", zap.Error(err))
		} else {
			fulfillment.SetNotifier(bot)
			preCheckout = bot
		}
	}

	// Create handlers
	h := handler.New(cfg, repo, dispatcher, plategaProvider, liveSvc, preCheckout, zlog)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Internal-Key",
	}))

	// Health check
	app.Get("/health", h.Health)

	// Payment webhooks (provider callbacks, no auth; each provider has its
	// own acknowledgement contract)
	app.Post("/webhook/heleket", h.HeleketWebhook)
	app.Get("/webhook/yookassa", h.YooKassaProbe)
	app.Post("/webhook/yookassa", h.YooKassaWebhook)
	app.Post("/webhook/telegram", h.TelegramWebhook)
	app.Post("/webhook/telegram-stars", h.TelegramWebhook)
	app.Post("/webhook/freekassa", h.FreeKassaWebhook)
	app.Get("/webhook/freekassa", h.FreeKassaWebhook)
	app.Post("/webhook/robokassa", h.RobokassaWebhook)
	app.Get("/webhook/robokassa", h.RobokassaWebhook)
	app.Post("/webhook/crystalpay", h.CrystalPayWebhook)
	app.Post("/webhook/platega", h.PlategaWebhook)
	app.Post("/webhook/mulenpay", h.MulenPayWebhook)
	app.Post("/webhook/urlpay", h.URLPayWebhook)
	app.Post("/webhook/btcpayserver", h.BTCPayServerWebhook)
	app.Post("/webhook/tribute", h.TributeWebhook)
	app.Post("/webhook/monobank", h.MonobankWebhook)

	// Public subscription state (served from cache)
	app.Get("/api/subscription/:uuid/live", h.LiveSubscription)

	// Internal endpoints (bot to backend)
	internal := app.Group("/internal", middleware.InternalKey(cfg.Internal.Key))
	internal.Post("/process-telegram-payment", h.ProcessTelegramPayment)
	internal.Post("/payments", h.CreatePayment)
	internal.Get("/tariffs", h.ListTariffs)
	internal.Get("/users/:id/transactions", h.BalanceTransactions)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go syncWorker.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	}()

	// Start server
	zlog.Info("Server starting", zap.String("port", cfg.Server.Port))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}
