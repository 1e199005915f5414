package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/pprof"
	"github.com/jaytnw/sage-insights/internal/config"
	"github.com/jaytnw/sage-insights/internal/handlers"
	"github.com/jaytnw/sage-insights/internal/logger"
	"github.com/jaytnw/sage-insights/internal/mqtt"
	"github.com/jaytnw/sage-insights/internal/notify"
	"github.com/jaytnw/sage-insights/internal/routes"
	"github.com/jaytnw/sage-insights/internal/services"
	"github.com/jaytnw/sage-insights/internal/session"
	"github.com/jaytnw/sage-insights/internal/view"
	redisPkg "github.com/jaytnw/sage-insights/pkg/redisclient"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not loaded (using system env)")
	}

	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync(zlog)

	// Lab list cache: Redis when enabled and reachable, memory otherwise
	var labCache services.Cache = redisPkg.NewMemoryCache()
	if cfg.RedisConfig.Enabled {
		client := redisPkg.NewClient(cfg.RedisConfig)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisPkg.Ping(ctx, client); err != nil {
			zlog.Warn("redis unavailable, using in-memory lab cache", zap.Error(err))
		} else {
			labCache = redisPkg.NewCache(client)
			zlog.Info("redis connected", zap.String("addr", cfg.RedisConfig.Addr()))
		}
		cancel()
	}

	// ExternalAPI
	externalAPI := services.NewExternalAPIService(cfg.UpstreamConfig.BaseURL, cfg.UpstreamConfig.Timeout)

	labService := services.NewLabService(externalAPI, labCache, cfg.RedisConfig.LabTTL, zlog)
	statsService := services.NewStatsService(
		externalAPI,
		cfg.UpstreamConfig.DowntimeTimeRange,
		cfg.UpstreamConfig.DowntimeConcurrency,
		zlog,
	)

	notifiers := notify.Multi{notify.NewLogNotifier(zlog)}

	// MQTT is optional: notices are pushed and lab caches invalidated through it
	if cfg.MQTTConfig.BrokerURL != "" {
		clientID := fmt.Sprintf("%s-%d", cfg.MQTTConfig.ClientID, time.Now().UnixNano())
		mqttClient, err := mqtt.NewClient(
			cfg.MQTTConfig.BrokerURL,
			clientID,
			cfg.MQTTConfig.Username,
			cfg.MQTTConfig.Password,
			zlog,
		)
		if err != nil {
			zlog.Warn("mqtt unavailable, notices are logged only", zap.Error(err))
		} else {
			defer mqttClient.Close()
			notifiers = append(notifiers, notify.NewMQTTNotifier(mqttClient, cfg.MQTTConfig.NotifyTopic, zlog))

			invalidate := handlers.NewLabInvalidateHandler(labService, zlog)
			if err := mqttClient.Subscribe(cfg.MQTTConfig.LabInvalidateTopic, invalidate.Handle); err != nil {
				zlog.Warn("mqtt subscribe failed", zap.String("topic", cfg.MQTTConfig.LabInvalidateTopic), zap.Error(err))
			}
		}
	}

	gate, err := session.NewGate(
		cfg.SessionConfig.HashKey,
		cfg.SessionConfig.BlockKey,
		cfg.SessionConfig.LoginPath,
		cfg.SessionConfig.Secure,
		zlog,
	)
	if err != nil {
		zlog.Fatal("invalid session configuration", zap.Error(err))
	}

	// Wire DI
	pages := view.NewRegistry(labService, statsService, notifiers, zlog)
	insightsHandler := handlers.NewInsightsHandler(pages, labService, gate.LoginPath())
	sessionHandler := handlers.NewSessionHandler(gate, pages, zlog)

	// Create Fiber app
	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New())
	if cfg.Environment != "production" {
		app.Use(pprof.New())
	}

	routes.Setup(app, gate, insightsHandler, sessionHandler)

	go func() {
		zlog.Info("server starting", zap.String("address", cfg.ServerAddress))
		if err := app.Listen(cfg.ServerAddress); err != nil {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
		return
	}

	zlog.Info("server gracefully stopped")
}
