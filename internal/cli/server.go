package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/auth"
	"ffquiz-service/internal/config"
	"ffquiz-service/internal/infra/memory"
	"ffquiz-service/internal/infra/postgres"
	infraredis "ffquiz-service/internal/infra/redis"
	transport "ffquiz-service/internal/transport/http"
	"ffquiz-service/internal/verification"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the storage chosen from configuration. Postgres wins for
// profiles when configured, then Redis, then process memory.
type backends struct {
	profiles app.ProfileStore
	sessions app.SessionRepository
	verifier app.Verifier
	pool     *pgxpool.Pool
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			b.close()
			return nil, err
		}
	}

	var db *bun.DB
	if cfg.Postgres.URL != "" {
		db = openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db); err != nil {
			b.close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, err
		}
		b.pool = pool
		b.closers = append(b.closers, pool.Close)
	}

	sessionTTL := config.Duration(cfg.Session.TTL, 30*time.Minute)
	cacheTTL := config.Duration(cfg.Verification.CacheTTL, 5*time.Minute)
	client := verification.NewClient(
		cfg.Verification.BaseURL,
		config.Duration(cfg.Verification.Timeout, 10*time.Second),
		cfg.Verification.RetryCount,
	)

	switch {
	case db != nil:
		b.profiles = postgres.NewProfileStore(db)
		log.Printf("profiles stored in postgres")
	case redisClient != nil:
		b.profiles = infraredis.NewProfileStore(redisClient)
		log.Printf("profiles stored in redis")
	default:
		b.profiles = memory.NewProfileStore()
		log.Printf("profiles kept in memory; they are lost on restart")
	}

	if redisClient != nil {
		b.sessions = infraredis.NewSessionStore(redisClient, sessionTTL)
		b.verifier = infraredis.NewVerificationCache(redisClient, client, cacheTTL)
	} else {
		b.sessions = memory.NewSessionStore()
		b.verifier = memory.NewVerificationCache(client, cacheTTL)
	}
	return b, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	cat, err := loadCatalog(ctx, cfg, b.pool)
	if err != nil {
		return err
	}
	log.Printf("catalog loaded with %d quizzes", cat.Len())

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, config.Duration(cfg.Auth.TokenTTL, 7*24*time.Hour))
	board := app.NewLeaderboardService(b.profiles)
	settlement := app.NewSettlement(b.profiles, cat, cfg.Rewards.CoinsPerQuiz, cfg.Rewards.PassThreshold)
	quizzes := app.NewQuizService(cat, b.sessions, b.profiles, settlement, board)
	handler := transport.NewHandler(
		cat,
		quizzes,
		app.NewProfileService(b.profiles, cat),
		app.NewIdentityService(b.profiles, b.verifier, tokens),
		app.NewRedemption(b.profiles, cfg.Redemption.Tiers, board),
		board,
	)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(handler, transport.NewWSHandler(quizzes, board, tokens), tokens),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
