package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromFallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	From(context.Background()).Info("hello", Op("test"))
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "test", logs.All()[0].ContextMap()["op"])
}

func TestContextScopedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	scoped := zap.New(core).With(RequestID("rid-1"))

	ctx := ToContext(context.Background(), scoped)
	From(ctx).Debug("scoped", ClientID("client1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "rid-1", fields["request_id"])
	require.Equal(t, "client1", fields["client_id"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	require.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	require.Equal(t, zapcore.ErrorLevel, parseLevel(" error "))
	require.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestMaskEmail(t *testing.T) {
	for in, want := range map[string]string{
		"estateuser@testestate1.co.uk": "e…@t….co.uk",
		" A@B.com ":                    "a@b.com",
		"":                             "",
		"abc":                          "***",
		"no-arroba":                    "n…a",
		"@dominio.com":                 "@…m",
	} {
		require.Equal(t, want, MaskEmail(in), in)
	}
}
