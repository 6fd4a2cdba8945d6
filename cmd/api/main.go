// @title Quiz Drill API
// @version 1.0
// @description Local API of the Quiz Drill certification exam trainer.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-drill/internal/adapter"
	"quiz-drill/internal/bank"
	"quiz-drill/internal/cache"
	"quiz-drill/internal/config"
	"quiz-drill/internal/database"
	"quiz-drill/internal/domain"
	"quiz-drill/internal/handler"
	"quiz-drill/internal/logger"
	"quiz-drill/internal/middleware"
	"quiz-drill/internal/repository"
	"quiz-drill/internal/service"
	"quiz-drill/internal/util"

	_ "quiz-drill/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// openRecordStore connects the configured backend. The returned closer
// releases its connection.
func openRecordStore(ctx context.Context, cfg *config.Config) (domain.RecordStore, func() error, error) {
	appLogger := logger.Get()
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.StorageBackendMemory:
		appLogger.Warn("Using in-memory record store; history is lost on exit")
		return adapter.NewMemoryRecordStore(), noop, nil
	case config.StorageBackendFile:
		store, err := adapter.NewFileRecordStore(cfg.Storage.FilePath)
		if err != nil {
			return nil, nil, err
		}
		appLogger.Info("File record store initialized", zap.String("path", cfg.Storage.FilePath))
		return store, noop, nil
	case config.StorageBackendRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		return adapter.NewRedisRecordStore(client), client.Close, nil
	case config.StorageBackendOracle:
		db, err := database.NewSQLXOracleDB(ctx, cfg.GetDSN())
		if err != nil {
			return nil, nil, err
		}
		appLogger.Info("Successfully connected to Oracle", zap.String("host", cfg.DB.Host))
		return repository.NewRecordDatabaseAdapter(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage.Backend)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	questions, err := bank.Load(cfg.Exam.QuestionBankPath)
	if err != nil {
		appLogger.Fatal("Failed to load question bank", zap.Error(err))
	}
	appLogger.Info("Question bank loaded", zap.Int("questions", questions.Len()))

	records, closeRecords, err := openRecordStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to open record store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer func() {
		if err := closeRecords(); err != nil {
			appLogger.Error("Failed to close record store", zap.Error(err))
		}
	}()

	examStore := service.NewExamStoreService(records, domain.SystemClock{}, cfg.Storage.KeyPrefix)
	controller, err := service.NewController(ctx, service.ControllerOptions{
		Bank:             questions,
		Store:            examStore,
		NewID:            util.NewULID,
		AutoAdvanceDelay: cfg.Exam.AutoAdvanceDelay,
		CompletionDelay:  cfg.Exam.CompletionDelay,
		RestoreWindow:    cfg.Exam.RestoreWindow,
	})
	if err != nil {
		appLogger.Fatal("Failed to create controller", zap.Error(err))
	}
	defer controller.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := records.Ping(c.UserContext()); err != nil {
			return domain.NewInternalError("record store unavailable", err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	handler.RegisterRoutes(app.Group("/api"), handler.NewExamHandler(controller), middleware.NewValidationMiddleware())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		return app.Listen(":" + strconv.Itoa(cfg.Server.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server exited gracefully")
}
