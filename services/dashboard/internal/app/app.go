package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	libdb "parkgate/libs/db"
	"parkgate/services/dashboard/internal/auth"
	"parkgate/services/dashboard/internal/config"
	httpserver "parkgate/services/dashboard/internal/http"
	"parkgate/services/dashboard/internal/http/handlers"
	"parkgate/services/dashboard/internal/repository"
)

// App wires all dependencies for the dashboard.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	logger *zap.Logger
}

// New builds the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	logsRepo := repository.NewLogsRepository(sqlDB)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	hasher := auth.NewBcryptHasher(0)

	router := httpserver.NewRouter(httpserver.Routes{
		Login: handlers.NewLoginHandler(handlers.Operator{
			Username:     cfg.Auth.Operator,
			PasswordHash: cfg.Auth.PasswordHash,
		}, hasher, tokens, logger),
		RecentLogs: handlers.NewRecentLogsHandler(logsRepo, logger),
		DailyStats: handlers.NewDailyStatsHandler(logsRepo, logger),
		Health:     handlers.NewHealthHandler(),
		Auth:       httpserver.AuthMiddleware(tokens),
	})

	return &App{
		server: httpserver.NewServer(cfg.HTTPAddress(), router, logger),
		db:     sqlDB,
		logger: logger,
	}, nil
}

// Run starts the HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
