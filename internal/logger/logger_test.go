package logger

import (
	"bytes"
	"encoding/json"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		dev      bool
		expected zerolog.Level
	}{
		{name: "empty level defaults to info", level: "", expected: zerolog.InfoLevel},
		{name: "invalid level defaults to info", level: "chatty", expected: zerolog.InfoLevel},
		{name: "warn level", level: "warn", expected: zerolog.WarnLevel},
		{name: "debug level", level: "debug", expected: zerolog.DebugLevel},
		{name: "dev lowers info to debug", level: "info", dev: true, expected: zerolog.DebugLevel},
		{name: "dev keeps trace", level: "trace", dev: true, expected: zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Setup(tt.level, tt.dev)
			require.Equal(t, tt.expected, l.GetLevel())
		})
	}
}

func TestForConnection(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	id := uuid.New()
	peer := &net.TCPAddr{IP: net.ParseIP("::1"), Port: 50123}

	l := ForConnection(base, id, peer)
	l.Info().Msg("hello")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	require.Equal(t, id.String(), event["conn_id"])
	require.Equal(t, "[::1]:50123", event["peer"])
}

func TestForConnection_NilPeer(t *testing.T) {
	var buf bytes.Buffer
	l := ForConnection(zerolog.New(&buf), uuid.New(), nil)
	l.Info().Msg("hello")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	require.NotContains(t, event, "peer")
}
