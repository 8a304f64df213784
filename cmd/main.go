package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/doc-quiz-system/api"
	"github.com/fyerfyer/doc-quiz-system/api/handler"
	"github.com/fyerfyer/doc-quiz-system/api/middleware"
	"github.com/fyerfyer/doc-quiz-system/config"
	"github.com/fyerfyer/doc-quiz-system/internal/cache"
	"github.com/fyerfyer/doc-quiz-system/internal/database"
	"github.com/fyerfyer/doc-quiz-system/internal/document"
	"github.com/fyerfyer/doc-quiz-system/internal/llm"
	"github.com/fyerfyer/doc-quiz-system/internal/quizgen"
	"github.com/fyerfyer/doc-quiz-system/internal/repository"
	"github.com/fyerfyer/doc-quiz-system/internal/services"
	"github.com/fyerfyer/doc-quiz-system/pkg/storage"
	"github.com/fyerfyer/doc-quiz-system/pkg/taskqueue"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载.env文件（不存在时忽略）
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "Path to config file")
	mode := flag.String("mode", "", "Run mode (debug/release), overrides config")
	port := flag.Int("port", 0, "Server port, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	// 设置运行模式
	if *mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化日志系统
	logger := setupLogger(cfg.Logging)

	// 初始化数据库
	if err := database.Setup(&database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 初始化文件存储
	fileStorage, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 初始化LLM客户端与测验生成器
	llmClient, err := setupLLM(cfg.LLM)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	generator := quizgen.NewGenerator(llmClient,
		quizgen.WithMaxTokens(cfg.LLM.MaxTokens),
		quizgen.WithTemperature(cfg.LLM.Temperature),
	)

	// 创建文本分段器
	splitter := document.NewWordSplitter(document.SplitterConfig{
		MaxSegmentLength: cfg.Quiz.SegmentSize,
		MaxSegments:      cfg.Quiz.MaxSegments,
	})

	repo := repository.NewQuizRepository()

	serviceOptions := []services.QuizOption{
		services.WithLogger(logger),
		services.WithTimeout(time.Duration(cfg.Quiz.TimeoutSec) * time.Second),
	}

	// 初始化缓存（可选）
	if cfg.Cache.Enable {
		cacheService, err := setupCache(cfg.Cache)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
		serviceOptions = append(serviceOptions,
			services.WithCache(cacheService),
			services.WithCacheTTL(time.Duration(cfg.Cache.TTL)*time.Second),
		)
		logger.Infof("Cache initialized: %s", cfg.Cache.Type)
	}

	// 初始化任务队列（可选，启用后测验生成走异步流程）
	var queue taskqueue.Queue
	var worker *taskqueue.Worker
	if cfg.Queue.Enable {
		queueConfig := &taskqueue.Config{
			RedisAddr:     cfg.Queue.RedisAddr,
			RedisPassword: cfg.Queue.RedisPassword,
			RedisDB:       cfg.Queue.RedisDB,
			Concurrency:   cfg.Queue.Concurrency,
			RetryLimit:    cfg.Queue.RetryLimit,
			RetryDelay:    time.Duration(cfg.Queue.RetryDelay) * time.Second,
		}

		queue, err = taskqueue.NewRedisQueue(queueConfig, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()

		serviceOptions = append(serviceOptions, services.WithTaskQueue(queue))
		worker = taskqueue.NewWorker(queueConfig, queue, logger)

		logger.WithFields(logrus.Fields{
			"redis_addr":  cfg.Queue.RedisAddr,
			"concurrency": cfg.Queue.Concurrency,
			"retry_limit": cfg.Queue.RetryLimit,
		}).Info("Task queue initialized")
	}

	quizService := services.NewQuizService(
		fileStorage,
		splitter,
		generator,
		repo,
		serviceOptions...,
	)

	// 启动异步任务处理工作者
	if worker != nil {
		worker.RegisterHandler(services.NewQuizTaskHandler(quizService, logger))
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
	}

	// 初始化API处理器与路由
	quizHandler := handler.NewQuizHandler(quizService)
	r := api.SetupRouter(quizHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 优雅关闭
	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger 设置日志系统
func setupLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// 配置了日志文件时使用滚动日志
	if cfg.File != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}

	return logger
}

// setupStorage 设置文件存储服务
func setupStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			Path: cfg.Path,
		})
	}
}

// setupLLM 设置大语言模型客户端
func setupLLM(cfg config.LLMConfig) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	opts := []llm.Option{
		llm.WithAPIKey(cfg.APIKey),
		llm.WithModel(cfg.Model),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTemperature(cfg.Temperature),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.Endpoint))
	}

	return llm.NewClient(cfg.Provider, opts...)
}

// setupCache 设置缓存服务
func setupCache(cfg config.CacheConfig) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:            cfg.Type,
		DefaultTTL:      time.Duration(cfg.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}

	if cfg.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Address
		cacheConfig.RedisPassword = cfg.Password
		cacheConfig.RedisDB = cfg.DB
	}

	return cache.NewCache(cacheConfig)
}
