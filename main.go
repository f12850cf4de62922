package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	tgbotapi "gopkg.in/telegram-bot-api.v4"

	"alert-relay-go/internal/alerts"
	"alert-relay-go/internal/clock"
	"alert-relay-go/internal/config"
	"alert-relay-go/internal/handlers"
	"alert-relay-go/internal/metrics"
	"alert-relay-go/internal/notify"
	"alert-relay-go/internal/retention"
	"alert-relay-go/internal/router"
	"alert-relay-go/internal/silence"
	"alert-relay-go/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	ctx := context.Background()
	if err := pgStore.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	events := store.NewEventStore(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}
	// Outbound chat calls are bounded so a slow Telegram API cannot
	// stall ingestion requests.
	bot.Client = &http.Client{Timeout: cfg.TelegramTimeout}
	notifier := notify.NewTelegramNotifier(bot)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	clk := clock.RealClock{}
	silences := silence.NewRegistry(pgStore, clk)
	rt := router.New(pgStore, clk, m, cfg.PrimaryChatID, cfg.DatabaseChatID, cfg.RecentWindow)
	service := alerts.NewService(pgStore, silences, rt, notifier, events, clk, m, cfg.RecentWindow)

	sweeper := retention.NewSweeper(pgStore, clk, m,
		time.Duration(cfg.RetentionDays)*24*time.Hour, cfg.SweepSchedule)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start retention sweeper: %v", err)
	}
	defer sweeper.Stop()

	commandBot := handlers.NewCommandBot(bot, service, silences, rt)
	go func() {
		if err := commandBot.Run(ctx); err != nil {
			log.Printf("Command bot stopped: %v", err)
		}
	}()

	h := handlers.NewHandler(service, events, cfg.WebhookToken)

	http.HandleFunc("/webhook", h.WebhookHandler)
	http.HandleFunc("/events", h.SSEHandler)
	http.HandleFunc("/healthz", h.HealthHandler)
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.Println("Listening on :" + cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		log.Fatal(err)
	}
}
