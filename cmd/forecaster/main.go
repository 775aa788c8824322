package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/solar-forecast/internal/database"
	"github.com/smukkama/solar-forecast/internal/forecast"
	"github.com/smukkama/solar-forecast/internal/model"
	"github.com/smukkama/solar-forecast/internal/publish"
	"github.com/smukkama/solar-forecast/internal/queue"
	"github.com/smukkama/solar-forecast/internal/timer"
	"github.com/smukkama/solar-forecast/pkg/config"
)

func main() {
	daemon := flag.Bool("daemon", false, "Run every hour instead of once")
	migrate := flag.Bool("migrate", false, "Apply SQL migrations before running")
	migrationsDir := flag.String("migrations", "migrations", "Directory containing SQL migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Pipeline)
	logger.Info("starting solar forecaster", "daemon", *daemon, "debug", cfg.Pipeline.Debug)

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.DBName)

	if *migrate {
		applied, err := db.RunMigrations(*migrationsDir)
		if err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied", "files", applied)
	}

	publisher, closePublishers := buildPublisher(cfg, logger)
	defer closePublishers()

	modelFiles := map[forecast.Target]string{
		forecast.Brightness: cfg.Model.BrightnessFile,
		forecast.Energy:     cfg.Model.EnergyFile,
	}
	runner := forecast.NewRunner(db, model.NewLoader(cfg.Model.Dir), publisher, modelFiles, logger)
	driver := forecast.NewDriver(runner, logger)

	if !*daemon {
		ok, err := driver.Run(context.Background())
		fmt.Println(ok)
		if err != nil {
			logger.Error("forecast pipeline failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runDaemon(driver, cfg.Pipeline.Delay, logger)
}

func newLogger(cfg config.PipelineConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// buildPublisher wires MQTT plus the optional Kafka and Redis mirrors
func buildPublisher(cfg *config.Config, logger *slog.Logger) (publish.Multi, func()) {
	var closers []func()
	sinks := publish.Multi{publish.NewMQTTPublisher(cfg.MQTT.Broker(), cfg.MQTT.Topic)}
	logger.Info("MQTT publisher initialized", "broker", cfg.MQTT.Broker(), "topic", cfg.MQTT.Topic)

	if cfg.Kafka.Enabled() {
		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, func() { producer.Close() })
		sinks = append(sinks, publish.NewKafkaPublisher(producer, cfg.MQTT.Topic))
		logger.Info("Kafka forecast mirror initialized", "topic", cfg.Kafka.Topic)
	}

	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { client.Close() })
		cache := publish.NewRedisPublisher(client, cfg.MQTT.Topic, cfg.Redis.TTL)
		sinks = append(sinks, cache)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		latest, err := cache.Latest(ctx)
		cancel()
		if err != nil {
			logger.Warn("failed to read cached forecast", "addr", cfg.Redis.Addr, "error", err)
		} else {
			logger.Info("Redis forecast cache initialized", "addr", cfg.Redis.Addr, "cached_entries", len(latest))
		}
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

func runDaemon(driver *forecast.Driver, delay time.Duration, logger *slog.Logger) {
	scheduler := timer.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	const jobID = "forecast-pipeline"

	var scheduleNext func()
	scheduleNext = func() {
		nextRun := timer.NextHourly(time.Now(), delay)
		logger.Info("next forecast run scheduled", "at", nextRun.Format("2006-01-02 15:04:05"))

		err := scheduler.Schedule(jobID, nextRun, func() {
			if _, err := driver.Run(context.Background()); err != nil {
				logger.Error("forecast pipeline failed", "error", err)
			}
			scheduleNext()
		})
		if err != nil {
			logger.Warn("forecast run not scheduled", "error", err)
		}
	}

	scheduleNext()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down", "pending_jobs", scheduler.Pending())
}
