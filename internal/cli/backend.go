package cli

import (
	"context"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quizboard-service/internal/app"
	"quizboard-service/internal/config"
	"quizboard-service/internal/infra/memory"
	"quizboard-service/internal/infra/postgres"
	redisstore "quizboard-service/internal/infra/redis"
)

// backend holds the repositories selected by the config: PostgreSQL when a
// URL is set, otherwise the in-memory store. Tokens go to Redis when an
// address is set.
type backend struct {
	catalog    app.CatalogRepository
	loader     app.QuizLoader
	attempts   app.AttemptRepository
	entries    app.LeaderboardRepository
	users      app.UserRepository
	tokens     app.TokenStore
	persistent bool
	closers    []func()
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}

	if cfg.Postgres.URL != "" {
		db := postgres.OpenDB(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { db.Close() })
		if err := migrateDB(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)

		store := postgres.NewStore(db, pool)
		b.catalog, b.attempts, b.entries, b.users = store, store, store, store
		b.loader = postgres.NewQuizLoader(pool)
		b.persistent = true
		log.Printf("using postgres storage")
	} else {
		store := memory.NewStore()
		b.catalog, b.attempts, b.entries, b.users = store, store, store, store
		b.loader = store
		log.Printf("using in-memory storage")
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { client.Close() })
		b.tokens = redisstore.NewTokenStore(client, config.TTLDuration(cfg.Redis.TTL, 0))
		log.Printf("using redis token store at %s", cfg.Redis.Addr)
	} else {
		b.tokens = memory.NewTokenStore()
	}
	return b, nil
}

func (b *backend) services(cfg config.Config) (*app.CatalogService, *app.QuizService, *app.LeaderboardService, *app.AuthService) {
	leaderboard := app.NewLeaderboardService(b.entries, b.attempts, app.LeaderboardOptions{
		QuizLimit:   cfg.Leaderboard.QuizLimit,
		GlobalLimit: cfg.Leaderboard.GlobalLimit,
	})
	return app.NewCatalogService(b.catalog),
		app.NewQuizService(b.loader, b.attempts, leaderboard),
		leaderboard,
		app.NewAuthService(b.users, b.tokens)
}

// Close releases connections in reverse order of opening.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
