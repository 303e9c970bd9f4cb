package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shanehull/promowatch/internal/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logger.Config
		wantErr error
	}{
		{name: "defaults", cfg: logger.Config{}},
		{name: "json debug", cfg: logger.Config{Level: "debug", Encoding: "json"}},
		{name: "development console", cfg: logger.Config{Level: "WARN", Development: true}},
		{name: "bad level", cfg: logger.Config{Level: "loud"}, wantErr: logger.ErrInvalidLevel},
		{name: "bad encoding", cfg: logger.Config{Encoding: "xml"}, wantErr: logger.ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := logger.New(tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFieldsAreStructured(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.NewFromZap(zap.New(core)).WithComponent("poll")

	l.WithError(errors.New("boom")).Info("cycle failed", "code", "MIDLOVE", zap.Int("attempt", 2))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "poll", fields["component"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "MIDLOVE", fields["code"])
	assert.EqualValues(t, 2, fields["attempt"])
}

func TestNoOp(t *testing.T) {
	l := logger.NewNoOp()
	l.With("a", 1).WithComponent("x").WithError(errors.New("e")).Error("ignored")
	assert.NoError(t, l.Sync())
}
