package wire

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/stk-reviewer/internal/config"
	"github.com/sevigo/stk-reviewer/internal/logger"
	"github.com/sevigo/stk-reviewer/internal/stk"
)

func TestProvideRunID(t *testing.T) {
	a, b := provideRunID(), provideRunID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(string(a))
	assert.NoError(t, err)
}

func TestProvideLoggerTagsRunID(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewLogger(logger.Config{Level: "info", Format: "json"}, &buf)
	base.With("run_id", "r-1").Info("hello")
	assert.Contains(t, buf.String(), `"run_id":"r-1"`)

	assert.NotNil(t, provideLogger(logger.Config{Level: "error"}, "r-2"))
}

func TestInitializeApp(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	config.SetDefaults(viper.GetViper())
	viper.Set(config.KeyQuickCommandID, "qc-review")
	viper.Set(config.KeyClientID, "client")
	viper.Set(config.KeyClientSecret, "secret")
	viper.Set(config.KeyConcurrency, 3)
	viper.Set(config.KeyLogLevel, "error")

	a, err := InitializeApp()
	require.NoError(t, err)
	assert.Equal(t, "qc-review", a.Cfg.STK.QuickCommandID)
	assert.Equal(t, 3, a.Cfg.STK.Concurrency)
	assert.NotEmpty(t, a.RunID)
	assert.IsType(t, &stk.ExecutionClient{}, a.Submitter)
	assert.IsType(t, &stk.CallbackClient{}, a.Poller)
	assert.NotNil(t, a.Git)
}

func TestInitializeAppMissingCredentials(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("CR_STK_AI_ID_QUICK_COMMAND", "")
	t.Setenv("CR_STK_AI_CLIENT_ID", "")

	config.SetDefaults(viper.GetViper())
	viper.Set(config.KeyQuickCommandID, "qc-review")

	_, err := InitializeApp()
	assert.ErrorIs(t, err, config.ErrMissingClientID)
}
