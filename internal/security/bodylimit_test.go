package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBodyLimit(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(data)
	})

	cases := []struct {
		name     string
		max      int64
		body     string
		declared int64
		code     int
		echoed   string
	}{
		{name: "within limit", max: 10, body: "hello", code: http.StatusOK, echoed: "hello"},
		{name: "exactly at limit", max: 5, body: "hello", code: http.StatusOK, echoed: "hello"},
		{name: "oversized stream", max: 5, body: "excessive", declared: -1, code: http.StatusRequestEntityTooLarge},
		{name: "oversized declared length", max: 5, body: "content", declared: 100, code: http.StatusRequestEntityTooLarge},
		{name: "no limit", max: 0, body: "anything at all", code: http.StatusOK, echoed: "anything at all"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ingredients", strings.NewReader(tc.body))
			if tc.declared != 0 {
				req.ContentLength = tc.declared
			}
			rr := httptest.NewRecorder()
			BodyLimit{Max: tc.max}.Middleware(echo).ServeHTTP(rr, req)
			require.Equal(t, tc.code, rr.Code)
			if tc.code == http.StatusOK {
				require.Equal(t, tc.echoed, rr.Body.String())
			} else {
				require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")
			}
		})
	}
}

func TestBodyLimitSkipsEmptyBody(t *testing.T) {
	rr := httptest.NewRecorder()
	BodyLimit{Max: 1}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
}
