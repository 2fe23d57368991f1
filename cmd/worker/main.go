package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/pkg/async"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/metrics"

	"github.com/wyfcoding/valuationengine/internal/valuation/application"
	valuationredis "github.com/wyfcoding/valuationengine/internal/valuation/infrastructure/persistence/redis"
	"github.com/wyfcoding/valuationengine/internal/valuation/infrastructure/queue"
	"github.com/wyfcoding/valuationengine/internal/valuation/interfaces/consumer"
)

var configPath = flag.String("config", "configs/worker/config.toml", "config file path")

const consumerWorkers = 4

// 估值 worker 进程：消费任务队列，执行计算并回写任务状态与结果缓存。
func main() {
	flag.Parse()

	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := logging.NewFromConfig(&logging.Config{Service: cfg.Server.Name, Level: cfg.Log.Level})
	slog.SetDefault(logger.Logger)

	metricsImpl := metrics.NewMetrics(cfg.Server.Name)

	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	resultStore := valuationredis.NewResultRedisStore(redisCache.GetClient())
	taskRepo := valuationredis.NewTaskRedisRepository(redisCache.GetClient())
	computationCache := application.NewComputationCache(resultStore, logger.Logger)

	producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	defer producer.Close()

	orchestrator := application.NewOrchestrator(
		taskRepo,
		queue.NewKafkaQueue(producer),
		computationCache,
		application.DefaultTTLPolicy(),
		logger.Logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskConsumer := kafka.NewConsumer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	defer taskConsumer.Close()

	handler := consumer.NewTaskHandler(orchestrator, logger.Logger)
	taskConsumer.Start(ctx, consumerWorkers, handler.Handle)
	slog.Info("valuation worker started",
		"topic", cfg.MessageQueue.Kafka.Topic, "workers", consumerWorkers)

	// 指标与存活探针。
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.HTTP.Port), Handler: mux}
	async.SafeGo(func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	})

	<-ctx.Done()
	slog.Info("shutting down valuation worker")
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Error("failed to shut down metrics server", "error", err)
	}
}
