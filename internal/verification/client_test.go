package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ffquiz-service/internal/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyParsesNickname(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, accountPath, r.URL.Path)
		assert.Equal(t, "123456789", r.URL.Query().Get("uid"))
		assert.Equal(t, "ind", r.URL.Query().Get("region"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"basicInfo":{"accountId":"123456789","nickname":"BoomKing","level":61}}`))
	}))
	defer srv.Close()

	rec, err := NewClient(srv.URL, time.Second, 0).Verify(context.Background(), "123456789", "ind")
	require.NoError(t, err)
	assert.Equal(t, "BoomKing", rec.Nickname)
	assert.Equal(t, "ind", rec.Region)
	assert.Contains(t, string(rec.Raw), `"level":61`)
}

func TestVerifyNotFoundIsVerificationError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "no such account", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 3).Verify(context.Background(), "1", "br")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVerificationFailed))
	assert.Equal(t, "API verification failed: Not Found", err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestVerifyRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"basicInfo":{"nickname":"Third"}}`))
	}))
	defer srv.Close()

	rec, err := NewClient(srv.URL, time.Second, 3).Verify(context.Background(), "1", "br")
	require.NoError(t, err)
	assert.Equal(t, "Third", rec.Nickname)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestVerifyGivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 1).Verify(context.Background(), "1", "br")
	var verr *domain.ExternalVerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "API verification failed: Service Unavailable", verr.Reason)
}

func TestVerifyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 0).Verify(context.Background(), "1", "br")
	assert.True(t, errors.Is(err, domain.ErrVerificationFailed))
}
