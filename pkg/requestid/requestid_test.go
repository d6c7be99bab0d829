package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"generated when missing", "", false},
		{"reused when valid", "req_abc-123", true},
		{"replaced when invalid chars", "bad id!", false},
		{"replaced when too long", strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.incoming != "" {
			req.Header.Set(requestid.Header, tt.incoming)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get(requestid.Header)
		assert.Equal(t, seen, got, tt.name)
		if tt.reuse {
			assert.Equal(t, tt.incoming, got, tt.name)
		} else {
			_, err := uuid.Parse(got)
			require.NoError(t, err, tt.name)
		}
	}
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	ex := requestid.LoggerExtractor()
	_, ok := ex(context.Background())
	assert.False(t, ok)

	attr, ok := ex(requestid.WithContext(context.Background(), "r-1"))
	assert.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "r-1", attr.Value.String())
}
