package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, srv *httptest.Server, retries int) *AsyncNetworkManager {
	t.Helper()
	nm := NewAsyncNetworkManager(&models.MBackendConfig{
		BaseURL:        srv.URL + "/",
		Token:          "tok",
		RequestTimeout: 5,
		MaxRetries:     retries,
		UserAgent:      "test-agent",
	}, logger.NewLogger(nil, "NetworkTest"))
	nm.RetryDelay = time.Millisecond
	return nm
}

func TestGetSendsTokenAndParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "/charts/api/chart-data", r.URL.Path)
		assert.Equal(t, "Tech", r.URL.Query().Get("group"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := newManager(t, srv, 0).Get(context.Background(), "/charts/api/chart-data", map[string]string{"group": "Tech"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newManager(t, srv, 2).Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Group not found"}`))
	}))
	defer srv.Close()

	_, err := newManager(t, srv, 3).Get(context.Background(), "/x", nil)
	require.Error(t, err)

	var be *helpers.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusNotFound, be.StatusCode)
	assert.Equal(t, "Group not found", be.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostJSONAndDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			b, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"username":"u","password":"p"}`, string(b))
			_, _ = w.Write([]byte(`{"access_token":"new"}`))
		case http.MethodDelete:
			assert.Equal(t, "AAPL", r.URL.Query().Get("ticker"))
			_, _ = w.Write([]byte(`{"message":"deleted"}`))
		}
	}))
	defer srv.Close()

	nm := newManager(t, srv, 0)
	body, err := nm.PostJSON(context.Background(), "/auth/login", models.MLoginCredentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "new")

	body, err = nm.Delete(context.Background(), "/charts/reset", map[string]string{"ticker": "AAPL"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "deleted")
}

func TestPostFileMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "data.xlsx", hdr.Filename)
		assert.Equal(t, "payload", string(b))
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	_, err := newManager(t, srv, 0).PostFile(context.Background(), "/charts/upload", "data.xlsx", strings.NewReader("payload"))
	require.NoError(t, err)
}

func TestSetTokenAndCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer other", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	nm := newManager(t, srv, 0)
	nm.SetToken("other")
	_, err := nm.Get(context.Background(), "/", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = nm.Get(ctx, "/", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
