package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	ctx := WithCorrelationID(context.Background(), "abc-123")
	FromContext(ctx, log).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc-123", line["correlation_id"])
	assert.Equal(t, "hello", line["msg"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "text")

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestCorrelationID_Missing(t *testing.T) {
	assert.Empty(t, CorrelationID(context.Background()))
}
