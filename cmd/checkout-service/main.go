package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/Checkout-microservice/config"
	"github.com/Dhoini/Checkout-microservice/internal/api/rest"
	"github.com/Dhoini/Checkout-microservice/internal/app"
	"github.com/Dhoini/Checkout-microservice/internal/kafka"
	"github.com/Dhoini/Checkout-microservice/internal/metrics"
	"github.com/Dhoini/Checkout-microservice/internal/repository/postgres"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

var log *logger.Logger

func init() {
	// Загружаем переменные окружения; .env файл необязателен
	_ = godotenv.Load()

	// Инициализация логгера
	logLevel := logger.INFO
	if os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log = logger.New(logLevel)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)

	// Запускаем сбор системных метрик
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Слой хранилища: PostgreSQL либо память для локальной разработки
	var repos app.Repositories
	if cfg.Database.Enabled {
		dbPool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()
		repos = app.NewPostgresRepositories(dbPool, log)
	} else {
		log.Warn("Database disabled, using in-memory storage")
		repos = app.NewInMemoryRepositories(log)
	}

	// Инициализация Kafka продюсера; без брокера сервис продолжает
	// работать, события просто не публикуются
	var producer kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Warn("Kafka unavailable, events will not be published: %v", err)
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	// Сборка приложения
	application := app.NewApp(cfg, repos, producer, promRegistry, log)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора
	router := rest.SetupRouter(application.Services, promRegistry, log)

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
