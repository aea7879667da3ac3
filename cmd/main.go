package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/twilio/twilio-go"

	"alert-monitor/internal/api"
	"alert-monitor/internal/call"
	"alert-monitor/internal/classifier"
	"alert-monitor/internal/config"
	"alert-monitor/internal/cursor"
	"alert-monitor/internal/db"
	"alert-monitor/internal/escalation"
	"alert-monitor/internal/kafka"
	"alert-monitor/internal/logging"
	"alert-monitor/internal/metrics"
	"alert-monitor/internal/notify"
	"alert-monitor/internal/stream"
	"alert-monitor/internal/telegram"
	"alert-monitor/internal/voice"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Connect to database
	var dbConn *db.DB
	if cfg.DB.DSN != "" {
		dbConn, err = db.New(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatalf("Database connection failed: %v", err)
		}
		defer dbConn.Close()
	}

	// Cursor store
	var backend cursor.Backend
	switch cfg.Cursor.Backend {
	case config.BackendRedis:
		var rdb *redis.Client
		rdb, err = cursor.DialRedis(ctx, cfg.Cursor.RedisURL)
		if err != nil {
			logger.Fatalf("Redis connection failed: %v", err)
		}
		defer rdb.Close()
		backend = cursor.NewRedisBackend(rdb, cursor.DefaultRedisKey)
	case config.BackendPostgres:
		backend = db.NewCursorBackend(dbConn)
	default:
		backend = cursor.NewFileBackend(cfg.Cursor.File)
	}
	store, err := cursor.Open(ctx, backend)
	if err != nil {
		logger.Fatalf("Failed to load cursor from %s: %v", backend.Name(), err)
	}
	logger.Infof("Cursor loaded from %s (%d seen ids)", backend.Name(), store.SeenCount())

	// Transports
	var wg sync.WaitGroup
	buffer := stream.NewBuffer(cfg.Stream.BufferSize)

	tgOpts := telegram.Options{Token: cfg.Telegram.BotToken, RateLimit: cfg.Telegram.RateLimit}
	if cfg.Stream.Source == config.SourceTelegram {
		tgOpts.ChannelID = cfg.Telegram.ChannelID
	}
	bot, err := telegram.New(tgOpts, buffer, logger)
	if err != nil {
		logger.Fatalf("Telegram init failed: %v", err)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		bot.Start(ctx)
	}()

	if cfg.Stream.Source == config.SourceKafka {
		consumer, err := kafka.NewConsumer(kafka.Config{
			Broker:     cfg.Stream.KafkaBroker,
			Topic:      cfg.Stream.KafkaTopic,
			StartAfter: store.LastSeenID(),
		}, buffer, logger)
		if err != nil {
			logger.Fatalf("Kafka consumer init failed: %v", err)
		}
		defer consumer.Close()
		consumer.Start(ctx, &wg)
		logger.Infof("Kafka consumer initialized with topic: %s", cfg.Stream.KafkaTopic)
	}

	var tw *twilio.RestClient
	if cfg.Twilio.AccountSID != "" {
		tw = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.Twilio.AccountSID,
			Password: cfg.Twilio.AuthToken,
		})
	}

	smsTo := cfg.Notify.SMSToNumber
	if smsTo == "" {
		smsTo = cfg.Call.ToNumber
	}
	notifier, err := notify.FromConfig(notify.Config{
		Backends: cfg.Notify.Backends,
		Telegram: bot,
		ChatID:   cfg.Notify.ChatID,
		Twilio:   tw,
		SMSFrom:  cfg.Twilio.FromNumber,
		SMSTo:    smsTo,
	})
	if err != nil {
		logger.Fatalf("Notifier init failed: %v", err)
	}

	// Classifier
	var cls classifier.Classifier = classifier.NewRules(classifier.CityOptions{
		City:        cfg.Monitor.City,
		Variants:    cfg.Monitor.CityVariants,
		OtherCities: cfg.Monitor.OtherCities,
	})
	if cfg.AIEnabled() {
		cls = classifier.NewAI(classifier.AIOptions{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
			City:    cfg.Monitor.City,
		}, cls, logger)
	} else {
		logger.Info("AI_API_KEY not set, using rule-based classifier")
	}

	hub := api.NewHub(logger)
	deps := escalation.Deps{
		Source:     buffer,
		Cursor:     store,
		Classifier: cls,
		Notifier:   notifier,
		Publisher:  hub,
		Metrics:    m,
		Logger:     logger,
	}
	if cfg.Call.Enabled {
		line := voice.NewLine(tw, voice.Options{
			From:        cfg.Twilio.FromNumber,
			RingTimeout: int(cfg.Call.Timeout / time.Second),
		})
		deps.Calls = call.NewEngine(line, notifier, call.Options{
			Recipient:     cfg.Call.ToNumber,
			MaxRetries:    cfg.Call.MaxRetries,
			RetryInterval: cfg.Call.RetryInterval,
			CallTimeout:   cfg.Call.Timeout,
			PollInterval:  cfg.Call.PollInterval,
		}, logger, m)
	}
	var history api.HistoryReader
	if dbConn != nil {
		deps.History = dbConn
		history = dbConn
	}
	ctrl := escalation.New(deps, escalation.Options{
		City:          cfg.Monitor.City,
		FetchLimit:    cfg.Monitor.FetchLimit,
		CheckInterval: cfg.Monitor.CheckInterval,
	})

	// Start API server
	var srv *http.Server
	if cfg.APIEnabled() {
		gin.SetMode(api.ModeFor(cfg.Logging.Level))
		srv = &http.Server{
			Addr: cfg.API.Port,
			Handler: api.NewRouter(api.Deps{
				Status:   ctrl,
				History:  history,
				Hub:      hub,
				Gatherer: reg,
				Logger:   logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Infof("Starting API server on %s", cfg.API.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("API server failed: %v", err)
			}
		}()
	}

	ctrl.Run(ctx)

	logger.Info("Shutting down...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("API server shutdown failed: %v", err)
		}
		cancel()
	}
	hub.Close()
	wg.Wait()
	logger.Info("Shutdown complete")
}
