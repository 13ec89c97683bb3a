package wire

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/google/wire"

	"github.com/sevigo/stk-reviewer/internal/app"
	"github.com/sevigo/stk-reviewer/internal/config"
	"github.com/sevigo/stk-reviewer/internal/core"
	"github.com/sevigo/stk-reviewer/internal/gitutil"
	"github.com/sevigo/stk-reviewer/internal/logger"
	"github.com/sevigo/stk-reviewer/internal/stk"
)

var AppSet = wire.NewSet(
	app.NewApp,
	config.LoadConfig,
	gitutil.NewClient,
	stk.NewHTTPClient,
	stk.NewExecutionClient,
	stk.NewCallbackClient,
	stk.DefaultRetryPolicy,
	provideTokenManager,
	provideLoggerConfig,
	provideSTKConfig,
	provideRunID,
	provideLogger,
	wire.Bind(new(core.TokenProvider), new(*stk.TokenManager)),
	wire.Bind(new(core.Submitter), new(*stk.ExecutionClient)),
	wire.Bind(new(core.Poller), new(*stk.CallbackClient)),
)

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Log
}

func provideSTKConfig(cfg *config.Config) config.STKConfig {
	return cfg.STK
}

func provideRunID() app.RunID {
	return app.RunID(uuid.NewString())
}

func provideLogger(cfg logger.Config, runID app.RunID) *slog.Logger {
	return logger.NewLogger(cfg, nil).With("run_id", string(runID))
}

func provideTokenManager(cfg config.STKConfig, client *http.Client, logger *slog.Logger) *stk.TokenManager {
	return stk.NewTokenManager(cfg, client, logger)
}
