package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Length(t *testing.T) {
	assert.Len(t, NewID(), 8)
}

func TestWithID_RoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), "abc12345")
	id, ok := ID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc12345", id)
}

func TestID_EmptyStringIsAbsent(t *testing.T) {
	id, ok := ID(WithID(context.Background(), ""))
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"no header", "", false},
		{"valid upstream id", "req-42_ABC", true},
		{"illegal characters", "abc def", false},
		{"too long", strings.Repeat("a", maxIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(Header, tt.header)
			}

			id := FromRequest(req)
			if tt.keep {
				assert.Equal(t, tt.header, id)
			} else {
				assert.Len(t, id, 8)
			}
		})
	}
}

func TestHandler_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil)))

	logger.InfoContext(WithID(context.Background(), "feedbeef"), "ingested")

	require.Contains(t, buf.String(), "correlation_id=feedbeef")
}

func TestHandler_NoIDNoAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil))).With("component", "test")

	logger.InfoContext(context.Background(), "ingested")

	assert.NotContains(t, buf.String(), "correlation_id")
	assert.Contains(t, buf.String(), "component=test")
}
