package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/api"
	"github.com/vibecreator/mixpost-api/internal/api/middleware"
	job "github.com/vibecreator/mixpost-api/internal/jobs"
	"github.com/vibecreator/mixpost-api/internal/queue"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/service"
)

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer closeDB(log, db)

	log.Info("Starting Mixpost server", zap.String("version", version), zap.String("env", cfg.AppEnv))

	ctx := cmd.Context()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()
	inspector := asynq.NewInspector(redisConn)
	defer inspector.Close()

	storage, err := service.NewR2Service(ctx, *cfg, log)
	if err != nil {
		return err
	}

	tx := repository.NewTransactor(db, log)
	userRepo := repository.NewUserRepository(db, log)
	postRepo := repository.NewPostRepository(db, log)
	postVersionRepo := repository.NewPostVersionRepository(db, log)
	selectedAccountRepo := repository.NewSelectedAccountRepository(db, log)
	postTagRepo := repository.NewPostTagRepository(db, log)
	socialAccountRepo := repository.NewSocialAccountRepository(db, log)
	tagRepo := repository.NewTagRepository(db, log)
	mediaRepo := repository.NewMediaRepository(db, log)
	settingsRepo := repository.NewSettingsRepository(db, log)
	apiKeyRepo := repository.NewApiKeyRepository(db, log)
	reportRepo := repository.NewReportRepository(db, log)
	idempotencyRepo := repository.NewIdempotencyRepository(db, log)

	enqueuer := queue.NewEnqueuer(client, log)

	postService := service.NewPostService(*cfg, log, tx, postRepo, postVersionRepo, selectedAccountRepo, postTagRepo,
		socialAccountRepo, tagRepo, mediaRepo, settingsRepo)
	mediaService := service.NewMediaService(*cfg, log, mediaRepo, storage, enqueuer)
	accountService := service.NewAccountService(*cfg, log, socialAccountRepo, mediaRepo, reportRepo, mediaService,
		service.NewProfileFetcher(*cfg))
	idempotencyService := service.NewIdempotencyService(*cfg, log, idempotencyRepo)

	purgeJob := job.NewPurgeJob(log, idempotencyService, postRepo, cfg.TrashRetention)
	scheduler, err := job.NewScheduler(purgeJob)
	if err != nil {
		return err
	}

	checks := map[string]service.HealthCheck{
		"database": func(ctx context.Context) (string, error) {
			if err := db.PingContext(ctx); err != nil {
				return "", err
			}
			return "Connected", nil
		},
		"redis": func(context.Context) (string, error) {
			if err := client.Ping(); err != nil {
				return "", err
			}
			return "Connected", nil
		},
		"queue": func(context.Context) (string, error) {
			return queueHealth(inspector)
		},
		"storage": func(ctx context.Context) (string, error) {
			if err := storage.Ping(ctx); err != nil {
				return "", err
			}
			return "Bucket reachable", nil
		},
		"scheduler": scheduler.Check,
	}

	services := api.Services{
		Posts:       postService,
		Calendar:    service.NewCalendarService(log, postRepo, postVersionRepo, selectedAccountRepo, postTagRepo, mediaRepo, settingsRepo),
		Accounts:    accountService,
		Media:       mediaService,
		Tags:        service.NewTagService(log, tagRepo),
		Settings:    service.NewSettingsService(log, settingsRepo),
		Users:       service.NewUserService(log, userRepo),
		Keys:        service.NewApiKeyService(log, apiKeyRepo),
		Dashboard:   service.NewDashboardService(log, accountService, postService, postRepo),
		Reports:     service.NewReportService(log, socialAccountRepo, reportRepo),
		System:      service.NewSystemService(*cfg, log, version, checks),
		Idempotency: idempotencyService,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stop := make(chan struct{})
	defer close(stop)
	go limiter.Cleanup(stop)

	app := api.NewApp(*cfg, log, services, api.Options{
		Registry:  registry,
		Limiter:   limiter,
		AccessLog: true,
	})

	worker := queue.NewQueue(log, mediaRepo, storage)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
		Logger:      log.Sugar(),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeMediaConversions, worker.HandleMediaConversionsTask)
	if err := server.Start(mux); err != nil {
		return fmt.Errorf("could not start asynq server: %w", err)
	}

	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			errCh <- err
		}
	}()
	log.Info("Server is running", zap.String("addr", cfg.HTTPAddr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutting down server...")
	case err = <-errCh:
		log.Error("Server failed", zap.Error(err))
	}

	if serr := app.ShutdownWithTimeout(30 * time.Second); serr != nil {
		log.Error("Failed to shut down server", zap.Error(serr))
	}
	scheduler.Stop()
	server.Shutdown()

	log.Info("Server shutdown complete.")
	return err
}

func queueHealth(inspector *asynq.Inspector) (string, error) {
	queues, err := inspector.Queues()
	if err != nil {
		return "", err
	}
	var pending, failed int
	for _, q := range queues {
		info, err := inspector.GetQueueInfo(q)
		if err != nil {
			return "", err
		}
		pending += info.Pending
		failed += info.Archived
	}
	return fmt.Sprintf("%d pending, %d failed", pending, failed), nil
}
