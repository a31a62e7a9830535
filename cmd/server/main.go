package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"syncmesh/internal/app/server/api"
	"syncmesh/internal/app/server/config"
	"syncmesh/internal/domain/payload"
	"syncmesh/internal/domain/peer"
	"syncmesh/internal/domain/sync"
	"syncmesh/internal/infrastructure/storage/postgres"
	"syncmesh/internal/scheduler"
	"syncmesh/internal/transport/peerclient"
	"syncmesh/internal/utils/logger"
	"syncmesh/internal/worker"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server terminated", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	store := postgres.NewDocumentStore(storage, log)
	metaProvider := postgres.NewMetaProvider(storage)
	logRepo := postgres.NewSyncLogRepository(storage)
	peerRepo := postgres.NewPeerRepository(storage)
	policyRepo := postgres.NewPolicyRepository(storage)
	settingsRepo := postgres.NewSettingsRepository(storage)

	// The site id is generated once at install and survives restarts.
	siteID, err := settingsRepo.EnsureSiteID(ctx, uuid.NewString())
	if err != nil {
		return err
	}
	log.Info("instance identity", slog.String("site_id", siteID))

	client := peerclient.New(log)
	codec := payload.NewCodec(metaProvider)
	applier := sync.NewApplier(policyRepo, log)
	resolver := sync.NewDependencyResolver(store, policyRepo, log)
	syncService := sync.NewService(store, logRepo, settingsRepo, applier, resolver, log)
	delivery := sync.NewDelivery(logRepo, peerRepo, client, log)

	pool := worker.NewPool(cfg.Sync.Workers, cfg.Sync.QueueSize, log)
	dispatcher := sync.NewDispatcher(codec, peerRepo, policyRepo, settingsRepo, delivery, pool, log)
	store.RegisterChangeHook(dispatcher.OnDocumentChange)

	retrier := sync.NewRetrier(logRepo, peerRepo, delivery, log)
	cleaner := sync.NewCleaner(logRepo, settingsRepo, log)
	peerService := peer.NewService(peerRepo, client, log)

	pool.Start(ctx)
	defer pool.Stop()

	sched := scheduler.New(scheduler.Config{
		RetryInterval:   cfg.Sync.RetryInterval,
		CleanupInterval: cfg.Sync.CleanupInterval,
	}, retrier.ProcessFailed, cleaner.CleanupLogs, log)
	sched.Start(ctx)
	defer sched.Stop()

	mux := api.New(api.Deps{
		SyncService: syncService,
		PeerService: peerService,
		Logs:        logRepo,
		Policies:    policyRepo,
		Retryer:     retrier,
		Verifier:    settingsRepo,
	}, log)

	srv := &http.Server{
		Addr:    cfg.Server.RunAddress,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("address", cfg.Server.RunAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
