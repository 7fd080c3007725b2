package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescan/backend/pkg/config"
	"github.com/wonny/valuescan/backend/pkg/logger"
	"github.com/wonny/valuescan/backend/pkg/redis"
)

type stubRateSource struct {
	rate  float64
	calls int64
}

func (s *stubRateSource) BaseRate(ctx context.Context) float64 {
	atomic.AddInt64(&s.calls, 1)
	return s.rate
}

func TestScreenHandler_GetBaseRate(t *testing.T) {
	rates := &stubRateSource{rate: 3.25}
	cfg := &config.Config{}

	// Redis 비활성: 캐시 경로는 no-op으로 통과한다
	rdb, err := redis.New(cfg)
	require.NoError(t, err)
	cache := redis.NewCache(rdb, "test")

	h := NewScreenHandler(nil, nil, rates, cache, cfg, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetBaseRate(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rate", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 3.25, body["base_rate"])
	assert.EqualValues(t, 1, atomic.LoadInt64(&rates.calls))
}
