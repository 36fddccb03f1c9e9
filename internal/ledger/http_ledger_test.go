package ledger

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLedger_DebitPoints_Success(t *testing.T) {
	var got LateFeeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, usePointPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	l := NewHTTPLedger(server.URL+"/", time.Second)
	err := l.DebitPoints(context.Background(), 42, decimal.NewFromInt(30))

	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.True(t, got.LateFee.Equal(decimal.NewFromInt(30)))
}

func TestHTTPLedger_DebitPoints_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("insufficient points"))
	}))
	defer server.Close()

	err := NewHTTPLedger(server.URL, time.Second).DebitPoints(context.Background(), 1, decimal.NewFromInt(30))

	assert.True(t, errors.Is(err, ErrDebitRejected))
	assert.Contains(t, err.Error(), "insufficient points")
}

func TestHTTPLedger_DebitPoints_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	err := NewHTTPLedger(server.URL, 20*time.Millisecond).DebitPoints(context.Background(), 1, decimal.NewFromInt(30))

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDebitRejected))
}
