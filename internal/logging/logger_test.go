package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorHandler(t *testing.T) {
	newLogger := func(buf *bytes.Buffer, level slog.Level) *slog.Logger {
		return slog.New(newColorHandler(buf, level))
	}

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, slog.LevelInfo)

		log.Debug("hidden")
		log.Info("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "shown")
	})

	t.Run("attrs render as key=value", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, slog.LevelInfo)

		log.Info("merged cleanly", "merge_commit", "c002")
		assert.Contains(t, buf.String(), "merge_commit=c002")
	})

	t.Run("error key is rewritten to err", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, slog.LevelInfo)

		log.Warn("failed", "error", "boom")
		out := buf.String()
		assert.Contains(t, out, "err=boom")
		assert.NotContains(t, out, "error=boom")
	})

	t.Run("with attrs and groups", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, slog.LevelInfo).With("attempt_id", "a-1").WithGroup("repo")

		log.Info("step", "op", "merge")
		out := buf.String()
		assert.Contains(t, out, "attempt_id=a-1")
		assert.Contains(t, out, "repo.op=merge")
	})
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	require.NotNil(t, log)
	log.Error("discarded", "error", "nothing happens")
}
