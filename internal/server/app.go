package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/cookshare/apiserver/config"
	"github.com/cookshare/apiserver/internal/db"
	"github.com/cookshare/apiserver/internal/events"
	"github.com/cookshare/apiserver/internal/mq"
	"github.com/cookshare/apiserver/internal/services"
	"github.com/cookshare/apiserver/internal/store"
	"github.com/redis/go-redis/v9"
)

// App holds the connections and services shared by the HTTP server and
// the maintenance commands.
type App struct {
	Config config.Config
	Logger *slog.Logger

	DB    *sql.DB
	Redis *redis.Client
	Queue *mq.MQ

	Accounts  *services.AccountService
	Profiles  *services.ProfileService
	Recipes   *services.RecipeService
	Directory *services.DirectoryService
}

// NewApp opens Postgres and the optional Redis and message queue
// connections, then builds the services. Optional backends that fail to
// connect are logged and left nil.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, DB: dbConn}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := db.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.WarnContext(ctx, "redis unavailable, rate limiting disabled", "error", err)
		} else {
			app.Redis = client
		}
	}

	var publisher services.EventPublisher
	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	switch {
	case errors.Is(err, mq.ErrDisabled):
		logger.InfoContext(ctx, "recipe events disabled")
	case err != nil:
		logger.WarnContext(ctx, "message queue unavailable, recipe events disabled", "backend", cfg.MQ.Backend, "error", err)
	default:
		app.Queue = queue
		publisher = events.NewPublisher(queue, cfg.MQ.Channel)
	}

	recipeRepo := store.NewRecipeRepository(dbConn)
	profileRepo := store.NewProfileRepository(dbConn)
	accountRepo := store.NewAccountRepository(dbConn)

	app.Accounts = services.NewAccountService(accountRepo)
	app.Profiles = services.NewProfileService(profileRepo)
	app.Recipes = services.NewRecipeService(recipeRepo, publisher, logger)
	app.Directory = services.NewDirectoryService(recipeRepo, profileRepo, logger)

	return app, nil
}

// Close releases every open connection.
func (a *App) Close() error {
	var errs []error
	if a.Queue != nil {
		errs = append(errs, a.Queue.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
