package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/hackeval/hackeval-api/api/swagger"
	"github.com/hackeval/hackeval-api/internal/handler"
	"github.com/hackeval/hackeval-api/internal/middleware"
	"github.com/hackeval/hackeval-api/internal/repository"
	"github.com/hackeval/hackeval-api/internal/service"
	"github.com/hackeval/hackeval-api/pkg/cache"
	"github.com/hackeval/hackeval-api/pkg/config"
	"github.com/hackeval/hackeval-api/pkg/database"
	"github.com/hackeval/hackeval-api/pkg/jobs"
	"github.com/hackeval/hackeval-api/pkg/llm"
	"github.com/hackeval/hackeval-api/pkg/logger"
	"github.com/hackeval/hackeval-api/pkg/mail"
	corsmiddleware "github.com/hackeval/hackeval-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hackeval/hackeval-api/pkg/middleware/requestid"
	"github.com/hackeval/hackeval-api/pkg/storage"
)

// @title HackEval API
// @version 1.0.0
// @description AI-assisted hackathon evaluation platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	hackathonRepo := repository.NewHackathonRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	mailer := mail.NewSMTPMailer(cfg.Mail, logr)
	mailQueue := jobs.NewQueue("mail", func(_ context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(service.MagicLinkMail)
		if !ok {
			return fmt.Errorf("unexpected mail payload type %T", job.Payload)
		}
		return mailer.Send(msg.To, msg.Subject, msg.Body)
	}, jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.MaxRetries,
		RetryDelay: cfg.Mail.RetryDelay,
		Logger:     logr,
	})
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	llmRouter := llm.NewRouter("mistral", cfg.LLM.DefaultModel)
	llmRouter.Register("mistral", llm.NewMistralProvider(cfg.LLM.MistralBaseURL, cfg.LLM.MistralAPIKey, cfg.LLM.RequestTimeout))
	if cfg.LLM.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiProvider(ctx, cfg.LLM.GeminiAPIKey)
		if err != nil {
			logr.Sugar().Warnw("gemini provider unavailable", "error", err)
		} else {
			defer gemini.Close() //nolint:errcheck
			llmRouter.Register("gemini", gemini)
		}
	}

	archive, err := storage.NewArchive(cfg.Export.ArchiveDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export archive", "error", err)
	}
	signer := storage.NewDownloadSigner(cfg.Export.TokenSecret, cfg.Export.DownloadTTL)
	go sweepArchive(ctx, archive, cfg.Export.DownloadTTL, logr)

	authSvc := service.NewAuthService(userRepo, mailQueue, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.AccessExpiry,
		MagicLinkExpiry:   cfg.JWT.MagicLinkExpiry,
		Issuer:            cfg.JWT.Issuer,
		MagicLinkBaseURL:  cfg.JWT.MagicLinkBaseURL,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	hackathonSvc := service.NewHackathonService(hackathonRepo, newInstrumentedCache(cacheRepo, metricsSvc), userRepo, validate, logr, cfg.Catalog.CacheTTL)
	conversationSvc := service.NewConversationService(conversationRepo, userRepo, hackathonRepo, newInstrumentedGenerator(llmRouter, metricsSvc), validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, conversationRepo, validate, logr)
	exportSvc := service.NewExportService(evaluationRepo, nil, nil, logr).WithArchive(archive, signer)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, handler.RouterConfig{
		APIPrefix:     cfg.APIPrefix,
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Hackathons:    handler.NewHackathonHandler(hackathonSvc),
		Conversations: handler.NewConversationHandler(conversationSvc),
		Evaluations:   handler.NewEvaluationHandler(evaluationSvc, exportSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
		AuthService:   authSvc,
		DB:            db,
		Redis:         redisClient,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// sweepArchive prunes archived exports whose download tokens have expired.
func sweepArchive(ctx context.Context, archive *storage.Archive, ttl time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := archive.Sweep(ttl)
			if err != nil {
				logr.Sugar().Warnw("export archive sweep failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("export archive swept", "removed", len(removed))
			}
		}
	}
}
