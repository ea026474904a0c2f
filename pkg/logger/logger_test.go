package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/logflow/tracegen/pkg/config"
)

func TestGet_Fallbacks(t *testing.T) {
	assert.NotNil(t, Get(nil))
	assert.NotNil(t, Get(context.Background()))
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core).Sugar()

	ctx := WithContext(context.Background(), l)
	Get(ctx).Infow("window written", "index", 2)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "window written", entry.Message)
	assert.Equal(t, int64(2), entry.ContextMap()["index"])
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tracegen.log")
	cfg := config.Default().Logging
	cfg.Path = path
	cfg.Level = "debug"

	require.NoError(t, Init(cfg))
	Get(nil).Debugw("hello", "k", "v")
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestInit_BadLevel(t *testing.T) {
	cfg := config.Default().Logging
	cfg.Level = "loud"
	assert.Error(t, Init(cfg))
}
