package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("symbol", "NFLX").Info("bought")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "bought", line["msg"])
	assert.Equal(t, "NFLX", line["symbol"])
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	logger := NewWithOutput("chatty", "text", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestContextRoundTrip(t *testing.T) {
	logger := NewWithOutput("info", "json", &bytes.Buffer{})
	entry := logger.WithField("request_id", "abc")

	ctx := WithLogger(context.Background(), entry)
	assert.Same(t, entry, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
