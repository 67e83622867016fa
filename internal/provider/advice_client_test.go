package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signal-deck/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestClient(url string) *AdviceClient {
	return NewAdviceClient(noop.NewTracerProvider().Tracer("test"), url, 2*time.Second)
}

func TestFetchLatestAdvicesSortsNewestFirst(t *testing.T) {
	var gotPath, gotAccept, gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotCache = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol":"A","advice_action":"buy","advice_strength":"high","reason":"a","predicted_at":100},
			{"symbol":"B","advice_action":"sell","advice_strength":"low","reason":"b","predicted_at":300},
			{"symbol":"C","advice_action":"hold","advice_strength":"medium","reason":"c","predicted_at":200}
		]`))
	}))
	defer srv.Close()

	advices, err := newTestClient(srv.URL).FetchLatestAdvices(context.Background())
	require.NoError(t, err)
	require.Len(t, advices, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{advices[0].PredictedAt, advices[1].PredictedAt, advices[2].PredictedAt})
	assert.Equal(t, "/api/get_last_10_advises", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "no-store", gotCache)
}

func TestFetchLatestAdvicesKeepsTiesStable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"symbol":"X","advice_action":"buy","advice_strength":"high","reason":"","predicted_at":5},
			{"symbol":"Y","advice_action":"buy","advice_strength":"high","reason":"","predicted_at":5}
		]`))
	}))
	defer srv.Close()

	advices, err := newTestClient(srv.URL).FetchLatestAdvices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "X", advices[0].Symbol)
	assert.Equal(t, "Y", advices[1].Symbol)
}

func TestFetchLatestAdvicesEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	advices, err := newTestClient(srv.URL).FetchLatestAdvices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, advices)
}

func TestFetchLatestAdvicesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"db down"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchLatestAdvices(context.Background())
	var be *domain.BackendError
	require.True(t, errors.As(err, &be), "expected BackendError, got %T", err)
	assert.Equal(t, 500, be.Status)
	assert.Contains(t, err.Error(), "db down")
}

func TestFetchLatestAdvicesBackendWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchLatestAdvices(context.Background())
	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Contains(t, err.Error(), "Internal Server Error")
}

func TestFetchLatestAdvicesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchLatestAdvices(context.Background())
	var he *domain.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, 404, he.Status)
	assert.Equal(t, "HTTP 404", err.Error())
}

func TestFetchLatestAdvicesConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).FetchLatestAdvices(context.Background())
	var ce *domain.ConnectivityError
	require.True(t, errors.As(err, &ce), "expected ConnectivityError, got %T: %v", err, err)
	assert.True(t, strings.Contains(err.Error(), url))
}

func TestFetchLatestAdvicesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchLatestAdvices(context.Background())
	var ue *domain.UnknownFetchError
	require.True(t, errors.As(err, &ue))
}

func TestFetchLatestAdvicesCancelledContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).FetchLatestAdvices(ctx)
	var ue *domain.UnknownFetchError
	require.True(t, errors.As(err, &ue), "expected UnknownFetchError, got %T", err)
	assert.ErrorIs(t, err, context.Canceled)
}
