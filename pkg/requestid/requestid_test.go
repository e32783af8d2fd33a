package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	handler := func(captured *string) http.Handler {
		return requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*captured = requestid.FromContext(r.Context())
		}))
	}

	t.Run("generates id when absent", func(t *testing.T) {
		t.Parallel()

		var got string
		rec := httptest.NewRecorder()
		handler(&got).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, got)
		_, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, got, rec.Header().Get(requestid.Header))
	})

	t.Run("reuses valid client id", func(t *testing.T) {
		t.Parallel()

		var got string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "trace-42_abc")
		rec := httptest.NewRecorder()
		handler(&got).ServeHTTP(rec, req)

		assert.Equal(t, "trace-42_abc", got)
		assert.Equal(t, "trace-42_abc", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces invalid client id", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"has spaces", "<script>", strings.Repeat("x", 200)} {
			var got string
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(requestid.Header, bad)
			handler(&got).ServeHTTP(httptest.NewRecorder(), req)

			assert.NotEqual(t, bad, got, "id %q must be replaced", bad)
			assert.NotEmpty(t, got)
		}
	})
}

func TestLogExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LogExtractor()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		ctx := requestid.WithContext(t.Context(), "abc")
		attr, ok := extract(ctx)
		require.True(t, ok)
		assert.Equal(t, "request_id", attr.Key)
		assert.Equal(t, "abc", attr.Value.String())
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		_, ok := extract(t.Context())
		assert.False(t, ok)
	})
}
