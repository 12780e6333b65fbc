package cli

import (
	"context"
	"fmt"
	"time"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/config"
	"daily-trivia-service/internal/infra/memory"
	openaigen "daily-trivia-service/internal/infra/openai"
	pgloader "daily-trivia-service/internal/infra/postgres"
	redisinfra "daily-trivia-service/internal/infra/redis"
	"daily-trivia-service/internal/infra/sqlstore"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// runtime is the assembled service plus everything that must be closed.
type runtime struct {
	service *app.TriviaService
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func buildRuntime(ctx context.Context, cfg config.Config, log *logrus.Logger) (*runtime, error) {
	rt := &runtime{}
	fail := func(err error) (*runtime, error) {
		rt.Close()
		return nil, err
	}

	var (
		store  app.Store
		loader app.QuestionLoader
	)
	switch cfg.Database.Driver {
	case "memory":
		mem := memory.NewStore()
		store, loader = mem, mem
		log.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return fail(err)
		}
		rt.closers = append(rt.closers, func() { db.Close() })
		if _, err := sqlstore.Migrate(ctx, db); err != nil {
			return fail(fmt.Errorf("migrate: %w", err))
		}
		sqlStore := sqlstore.New(db)
		store, loader = sqlStore, sqlStore
	}

	if cfg.Database.Driver == sqlstore.DriverPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return fail(fmt.Errorf("connect pgx pool: %w", err))
		}
		rt.closers = append(rt.closers, pool.Close)
		loader = pgloader.NewQuestionLoader(pool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
	}

	cacheTTL := config.TTLDuration(cfg.Trivia.CacheTTL, 10*time.Minute)
	var (
		questions app.QuestionSetRepository
		feed      app.StatsFeed
	)
	if redisClient != nil {
		questions = redisinfra.NewQuestionSetCache(redisClient, loader, cacheTTL, log)
		feed = redisinfra.NewStatsFeed(redisClient, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour), log)
	} else {
		questions = memory.NewQuestionSetCache(loader, cacheTTL)
		feed = memory.NewStatsFeed()
	}

	var generator app.Generator
	if cfg.OpenAI.APIKey != "" {
		generator = openaigen.NewGenerator(openaigen.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			BaseURL:     cfg.OpenAI.BaseURL,
		}, log)
	} else {
		log.Warn("no OpenAI key configured; generation serves the built-in sample set")
		generator = memory.NewStaticGenerator(memory.SampleQuestions())
	}

	mode, err := app.ParseScoringMode(cfg.Scoring.Mode)
	if err != nil {
		return fail(err)
	}
	opts := app.Options{
		QuestionCount: cfg.Trivia.QuestionCount,
		OptionCount:   cfg.Trivia.OptionCount,
		TimerDuration: cfg.Trivia.TimerSeconds,
		SessionType:   cfg.Trivia.SessionType,
		Scorer:        app.Scorer{Mode: mode, DefaultPoints: cfg.Scoring.DefaultPoints},
		AdminUserIDs:  cfg.Auth.AdminUserIDs,
	}

	rt.service = app.NewTriviaService(app.Deps{
		Store:     store,
		Questions: questions,
		Generator: generator,
		Feed:      feed,
		Log:       log,
	}, opts)
	return rt, nil
}
