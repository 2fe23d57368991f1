package main

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/app"
	"github.com/wyfcoding/pkg/cache"
	configpkg "github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/limiter"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/middleware"

	"github.com/wyfcoding/valuationengine/internal/valuation/application"
	valuationredis "github.com/wyfcoding/valuationengine/internal/valuation/infrastructure/persistence/redis"
	"github.com/wyfcoding/valuationengine/internal/valuation/infrastructure/queue"
	httphandler "github.com/wyfcoding/valuationengine/internal/valuation/interfaces/http"
)

type AppContext struct {
	Service *application.ValuationService
	Limiter limiter.Limiter
	Config  *configpkg.Config
}

const BootstrapName = "valuation"

func main() {
	app.NewBuilder[any, any](BootstrapName).
		WithConfig(&configpkg.Config{}).
		WithService(initService).
		WithGin(registerGin).
		WithGinMiddleware(middleware.CORS()).
		Build().
		Run()
}

func registerGin(e *gin.Engine, srv interface{}) {
	ctx := srv.(*AppContext)
	e.Use(middleware.RateLimitWithLimiter(ctx.Limiter))
	handler := httphandler.NewValuationHandler(ctx.Service)
	handler.RegisterRoutes(e.Group(""))
	e.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   BootstrapName,
			"timestamp": time.Now().Unix(),
		})
	})
	slog.Default().Info("HTTP routes registered", "service", BootstrapName)
}

func initService(cfg interface{}, m *metrics.Metrics) (interface{}, func(), error) {
	c := cfg.(*configpkg.Config)
	slog.Info("initializing service dependencies...")

	logger := logging.NewFromConfig(&logging.Config{Service: c.Server.Name, Level: c.Log.Level})

	redisCache, err := cache.NewRedisCache(&c.Data.Redis, c.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, err
	}
	rateLimiter := limiter.NewRedisLimiter(redisCache.GetClient(), c.RateLimit.Rate, c.RateLimit.Burst)

	resultStore := valuationredis.NewResultRedisStore(redisCache.GetClient())
	taskRepo := valuationredis.NewTaskRedisRepository(redisCache.GetClient())
	computationCache := application.NewComputationCache(resultStore, logger.Logger)

	// 配置了 kafka broker 时任务发往独立 worker 进程，
	// 否则用进程内 worker 池就地消费。
	var orchestrator *application.Orchestrator
	var cleanupQueue func()
	if len(c.MessageQueue.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(&c.MessageQueue.Kafka, logger, m)
		orchestrator = application.NewOrchestrator(
			taskRepo, queue.NewKafkaQueue(producer), computationCache,
			application.DefaultTTLPolicy(), logger.Logger)
		cleanupQueue = func() {
			if err := producer.Close(); err != nil {
				slog.Error("failed to close kafka producer", "error", err)
			}
		}
	} else {
		poolQueue := queue.NewPoolQueue(runtime.NumCPU(), 256, logger.Logger)
		orchestrator = application.NewOrchestrator(
			taskRepo, poolQueue, computationCache,
			application.DefaultTTLPolicy(), logger.Logger)
		poolQueue.Bind(orchestrator.Execute)
		cleanupQueue = poolQueue.Stop
	}

	service := application.NewValuationService(orchestrator, logger.Logger)

	cleanup := func() {
		slog.Info("cleaning up resources...")
		cleanupQueue()
		if err := redisCache.Close(); err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}
	return &AppContext{
		Service: service,
		Limiter: rateLimiter,
		Config:  c,
	}, cleanup, nil
}
