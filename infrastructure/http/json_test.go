package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/jonesrussell/cooper/infrastructure/errors"
	infrahttp "github.com/jonesrussell/cooper/infrastructure/http"
)

func TestPostJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
	}))
	t.Cleanup(server.Close)

	var out struct {
		Echo string `json:"echo"`
	}
	err := infrahttp.PostJSON(context.Background(), infrahttp.NewClient(nil), server.URL,
		map[string]string{"name": "cooper"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "cooper", out.Echo)
}

func TestGetJSON_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	}))
	t.Cleanup(server.Close)

	var out map[string]any
	err := infrahttp.GetJSON(context.Background(), infrahttp.NewClient(nil), server.URL, &out)

	var httpErr *infraerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, "maintenance", httpErr.Message)
}

func TestGetJSON_BadBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	t.Cleanup(server.Close)

	var out map[string]any
	err := infrahttp.GetJSON(context.Background(), infrahttp.NewClient(nil), server.URL, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
