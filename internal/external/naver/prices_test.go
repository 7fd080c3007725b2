package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescan/backend/pkg/config"
	"github.com/wonny/valuescan/backend/pkg/httputil"
	"github.com/wonny/valuescan/backend/pkg/logger"
)

func testClient() *Client {
	return &Client{logger: logger.NewNop()}
}

func TestDailySeries_NoClientLevelRetry(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.Config{
		Naver: config.NaverConfig{HTTPTimeout: 2 * time.Second},
	}
	hc := httputil.New(cfg, logger.NewNop()).DisableRetry()
	c := &Client{
		htmlClient: hc,
		apiClient:  hc,
		logger:     logger.NewNop(),
		chartURL:   srv.URL,
	}

	// 실패한 호출은 즉시 에러로 돌아온다. 재시도는 오케스트레이터
	// 소유라서 서버는 정확히 한 번만 맞는다.
	_, err := c.DailySeries(context.Background(), "005930", time.Now().AddDate(-2, 0, 0), time.Now())
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))
}

func TestParsePriceResponse_JSON(t *testing.T) {
	// 실제 응답은 싱글쿼트 JSON 유사 포맷
	body := `[['날짜', '시가', '고가', '저가', '종가', '거래량'],
["20250102", 1000, 1100, 990, 1050, 12345],
["20250103", 1050, 1200, 1040, 1150, 23456]
]`

	bars, err := testClient().parsePriceResponse(body)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 1000.0, bars[0].Open)
	assert.Equal(t, 1100.0, bars[0].High)
	assert.Equal(t, 990.0, bars[0].Low)
	assert.Equal(t, 1050.0, bars[0].Close)
	assert.Equal(t, 12345.0, bars[0].Volume)

	assert.Equal(t, 1150.0, bars[1].Close)
}

func TestParsePriceResponse_SkipsMalformedRows(t *testing.T) {
	body := `[['날짜', '시가', '고가', '저가', '종가', '거래량'],
["20250102", 1000, 1100, 990, 1050, 12345],
["notadate", 1, 2, 3, 4, 5],
["20250103", 1050]
]`

	bars, err := testClient().parsePriceResponse(body)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1050.0, bars[0].Close)
}

func TestParsePriceResponse_RegexFallback(t *testing.T) {
	// JSON 파싱이 깨지는 응답: 정규식 폴백이 행을 건진다
	body := `callback([["20250102", 151.25, 153.5, 150.0, 152.75, 98765], trailing junk`

	bars, err := testClient().parsePriceResponse(body)
	require.NoError(t, err)
	require.Len(t, bars, 1)

	// 해외 종목은 소수점 가격
	assert.Equal(t, 151.25, bars[0].Open)
	assert.Equal(t, 152.75, bars[0].Close)
	assert.Equal(t, 98765.0, bars[0].Volume)
}

func TestParsePriceResponse_EmptyBody(t *testing.T) {
	bars, err := testClient().parsePriceResponse("")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestToFloat64(t *testing.T) {
	assert.Equal(t, 1.5, toFloat64(1.5))
	assert.Equal(t, 3.0, toFloat64(3))
	assert.Equal(t, 2.5, toFloat64("2.5"))
	assert.Equal(t, 0.0, toFloat64("abc"))
	assert.Equal(t, 0.0, toFloat64(nil))
}
