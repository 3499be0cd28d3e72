package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"unicred/internal/audit"
	"unicred/internal/batch"
	"unicred/internal/credential"
	"unicred/internal/directory"
	"unicred/internal/directory/contineo"
	"unicred/internal/jwttoken"
	"unicred/internal/keystore"
	"unicred/internal/onest"
	"unicred/internal/platform/config"
	"unicred/internal/platform/httpserver"
	"unicred/internal/platform/logger"
	"unicred/internal/platform/redis"
	httptransport "unicred/internal/transport/http"
	"unicred/internal/vc/builder"
	"unicred/internal/vc/metrics"
	vcservice "unicred/internal/vc/service"
	"unicred/internal/vc/signer"
	"unicred/internal/verifier"
)

// main wires dependencies and runs the server lifecycle. Business logic lives
// in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory otherwise so the service
	// still runs for local development.
	var (
		credStore  credential.Store
		batchStore batch.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("opening database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		credStore = credential.NewPostgres(db)
		batchStore = batch.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		credStore = credential.NewMemory()
		batchStore = batch.NewMemory()
	}

	// Issuer key persistence: Redis when configured, file fallback.
	var persistence keystore.Persistence
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		persistence = keystore.NewRedisStore(redisClient)
	} else {
		persistence = keystore.NewFileStore(cfg.KeyStorePath)
	}
	keys, err := keystore.New(persistence)
	if err != nil {
		log.Error("initializing issuer key", "error", err)
		os.Exit(1)
	}

	var dir directory.Directory = contineo.New(cfg.Dir, contineo.WithLogger(log))

	// Issuance audit trail: events flow through a local channel worker; the
	// sink is Kafka when brokers are configured.
	var auditStore audit.Store = audit.NewMemory()
	if len(cfg.Audit.Brokers) > 0 {
		kafkaStore, err := audit.NewKafka(ctx, cfg.Audit.Brokers, cfg.Audit.Topic)
		if err != nil {
			log.Error("connecting to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
	}
	auditPublisher := audit.NewPublisher(256, audit.WithLogger(log))
	auditWorker := audit.NewWorker(auditStore, auditPublisher.Events(), log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	m := metrics.New()

	engineOpts := []vcservice.Option{
		vcservice.WithLogger(log),
		vcservice.WithAudit(auditPublisher),
		vcservice.WithMetrics(m),
	}
	if cfg.Verifier.URL != "" {
		engineOpts = append(engineOpts, vcservice.WithExternalVerifier(verifier.New(cfg.Verifier)))
	}
	engine := vcservice.New(keys, dir, builder.New(cfg.IssuerName), signer.New(), credStore, engineOpts...)

	batches := batch.New(batchStore, engine, dir,
		cfg.Batch.ChunkSize, cfg.Batch.MaxParallel,
		batch.WithLogger(log),
		batch.WithAudit(auditPublisher),
		batch.WithMetrics(m))

	tokens := jwttoken.New(cfg.JWTSigningKey, "unicred", "unicred-admin")

	var routerOpts []httptransport.RouterOption

	// The ONEST surface (discovery, verification, Beckn search) and its
	// signed-callback queue are enabled together; both need the subscriber
	// identity.
	if cfg.Onest.SubscriberID != "" && cfg.Onest.PrivateKeyHex != "" {
		onestSigner, err := onest.NewSigner(cfg.Onest.SubscriberID, cfg.Onest.UniqueKeyID, cfg.Onest.PrivateKeyHex)
		if err != nil {
			log.Error("initializing onest signer", "error", err)
			os.Exit(1)
		}
		onestClient := onest.NewClient(cfg.Onest, onestSigner, onest.WithProviderName(cfg.IssuerName))
		onestQueue := onest.NewQueue(onestClient, 64,
			onest.WithQueueLogger(log),
			onest.WithRetryPolicy(cfg.Onest.MaxRetries, cfg.Onest.RetryBackoff))
		go func() {
			if err := onestQueue.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("onest queue stopped", "error", err)
			}
		}()
		onestHandler := httptransport.NewOnestHandler(credStore, onestClient, onestQueue, cfg.Onest.ProviderID, log)
		routerOpts = append(routerOpts, httptransport.WithOnestEndpoints(onestHandler))
	}

	if cfg.BootstrapSecret != "" {
		authHandler := httptransport.NewAuthHandler(tokens, dir, cfg.BootstrapSecret, log)
		routerOpts = append(routerOpts, httptransport.WithTokenEndpoint(authHandler))
	} else {
		log.Warn("ADMIN_BOOTSTRAP_SECRET not set, token endpoint disabled")
	}

	router := httptransport.NewRouter(engine, batches, jwttoken.NewAdapter(tokens), log, routerOpts...)

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting unicred", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
