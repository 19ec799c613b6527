package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xplshn/astro/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, zapcore.InfoLevel)
	log.Debug("hidden")
	log.Info("stage done", zap.String("stage", "analyze"))
	require.NoError(t, log.Sync())

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at info level: %q", out)
	}
	require.Contains(t, out, "stage done")
	require.Contains(t, out, "analyze")
	require.Contains(t, out, "Z\t", "expected a UTC timestamp")
}

func TestLevel(t *testing.T) {
	if got := logger.Level(true); got != zapcore.DebugLevel {
		t.Errorf("verbose: expected debug, got %v", got)
	}
	if got := logger.Level(false); got != zapcore.InfoLevel {
		t.Errorf("quiet: expected info, got %v", got)
	}
}

func TestContext(t *testing.T) {
	require.NotNil(t, logger.FromContext(context.Background()))

	var buf bytes.Buffer
	log := logger.New(&buf, zapcore.DebugLevel)
	ctx := logger.NewContextWithLogger(context.Background(), log)
	require.Same(t, log, logger.FromContext(ctx))
}
