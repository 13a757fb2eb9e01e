package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("test", "debug", "json", &buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUserID(ctx, "7")
	ctx = WithTenantID(ctx, "3")

	log.WithContext(ctx).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test", entry["service"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "7", entry["user_id"])
	assert.Equal(t, "3", entry["tenant_id"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestLogRequestLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("test", "info", "json", &buf)

	log.LogRequest(context.Background(), http.MethodGet, "/customers", http.StatusUnprocessableEntity, 5*time.Millisecond)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.EqualValues(t, 422, entry["status"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	log := NewWithOutput("test", "loud", "text", &bytes.Buffer{})
	assert.Equal(t, "info", log.GetLevel().String())
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	ctx := WithTraceID(context.Background(), "")
	assert.Empty(t, GetTraceID(ctx))
	assert.NotEmpty(t, NewTraceID())
}
