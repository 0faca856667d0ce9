package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/ai/embedding"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/ai/oracle"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/config"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/infra/httpclient"
	s3infra "github.com/Olof-Tingskull/lovisa-bottles/internal/infra/s3"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/jobs/cleanup"
	pgrepo "github.com/Olof-Tingskull/lovisa-bottles/internal/repo/postgres"
	redisrepo "github.com/Olof-Tingskull/lovisa-bottles/internal/repo/redis"
	accesssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/access"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	bottlesvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/bottles"
	journalsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/journal"
	mediasvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/media"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/opening"
	ratesvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/rate"
	selectionsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/selection"
	userssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/users"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	cleanupJob *cleanup.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redisrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redisrepo.NewRateRepo(redisClient)

	bottleRepo := pgrepo.NewBottleRepo(pool)
	journalRepo := pgrepo.NewJournalRepo(pool)
	openRepo := pgrepo.NewOpenRepo(pool)
	mediaRepo := pgrepo.NewMediaRepo(pool)
	grantRepo := pgrepo.NewGrantRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	txManager := pgrepo.NewTxManager(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	aiHTTPClient := httpclient.New(cfg.AI.Timeout)
	embedder, err := embedding.NewClient(embedding.Config{
		URL:        cfg.AI.EmbeddingURL,
		APIKey:     cfg.AI.EmbeddingKey,
		Model:      cfg.AI.EmbeddingModel,
		MaxRetries: cfg.AI.MaxRetries,
	}, aiHTTPClient)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	rankOracle, err := oracle.NewClient(oracle.Config{
		URL:    cfg.AI.OracleURL,
		APIKey: cfg.AI.OracleKey,
		Model:  cfg.AI.OracleModel,
	}, aiHTTPClient)
	if err != nil {
		return nil, fmt.Errorf("create oracle client: %w", err)
	}

	jwtManager, err := authsvc.NewJWTManager(authsvc.Config{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.JWTAccessTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create jwt manager: %w", err)
	}

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(mediasvc.Dependencies{
		Store:   mediaRepo,
		Storage: mediaStorage,
		Logger:  log,
	})
	accessService := accesssvc.NewService(accesssvc.Dependencies{
		Grants:  grantRepo,
		Media:   mediaRepo,
		Storage: mediaStorage,
		Logger:  log,
	}, accesssvc.Config{
		SignedURLTTL: time.Duration(cfg.Limits.SignedURLTTLSeconds) * time.Second,
	})
	bottleService := bottlesvc.NewService(bottlesvc.Dependencies{
		Store:    bottleRepo,
		Media:    mediaRepo,
		Embedder: embedder,
		Logger:   log,
	})
	selectionService := selectionsvc.NewService(embedder, rankOracle, bottleRepo, log, selectionsvc.Config{
		QueryStrategy: cfg.Selection.QueryStrategy,
		AssignedOnly:  cfg.Selection.AssignedOnly,
		MaxCandidates: cfg.Selection.MaxCandidates,
	})
	openingService := opening.NewService(opening.Dependencies{
		Tx:       txManager,
		Bottles:  bottleRepo,
		Journals: journalRepo,
		Opens:    openRepo,
		Logger:   log,
	}, opening.Config{
		Timezone: cfg.Limits.Timezone,
	})
	rateLimiter := ratesvc.NewLimiter(rateRepo, ratesvc.Config{
		SubmissionsPerMin: cfg.Limits.SubmissionsPerMin,
	})
	journalService := journalsvc.NewService(journalsvc.Dependencies{
		Selector: selectionService,
		Opener:   openingService,
		Limiter:  rateLimiter,
		Entries:  journalRepo,
		Logger:   log,
	})

	userService := userssvc.NewService(userRepo)

	cleanupJob := cleanup.NewJob(grantRepo, log, cleanup.Config{
		Interval:  cfg.Cleanup.Interval,
		Retention: cfg.Cleanup.GrantRetention,
	})

	RegisterRoutes(r, Dependencies{
		JournalService: journalService,
		BottleService:  bottleService,
		MediaService:   mediaService,
		AccessService:  accessService,
		UserService:    userService,
		JWTManager:     jwtManager,
		Logger:         log,
		Config:         cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		cleanupJob: cleanupJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RunCleanup blocks, purging stale grants on a ticker until ctx ends.
func (a *App) RunCleanup(ctx context.Context) {
	a.cleanupJob.Run(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
