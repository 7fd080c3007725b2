package naver

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"time"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/wonny/valuescan/backend/internal/numeric"
)

// FallbackBaseRate is used whenever the marketindex page is
// unreachable or the expected pattern is missing
const FallbackBaseRate = 3.25

// baseRateTimeout: 금리 조회는 짧게, 실패해도 폴백이 있다
const baseRateTimeout = 2 * time.Second

var baseRateRe = regexp.MustCompile(`한국은행 기준금리[\s\S]*?([0-9]\.[0-9]{2})`)

// BaseRate scrapes the BOK base rate (%) from the marketindex page.
// ⭐ SSOT: 기준금리 조회는 이 함수에서만
//
// 에러를 반환하지 않는다: 어떤 실패든 하드코딩된 폴백 3.25.
func (c *Client) BaseRate(ctx context.Context) float64 {
	ctx, cancel := context.WithTimeout(ctx, baseRateTimeout)
	defer cancel()

	body, err := c.fetchHTML(ctx, c.baseURL+"/marketindex/")
	if err != nil {
		c.logger.WithError(err).Warn("Base rate fetch failed, using fallback")
		return FallbackBaseRate
	}

	rate := parseBaseRate(body)
	if rate == 0 {
		c.logger.Warn("Base rate pattern not found, using fallback")
		return FallbackBaseRate
	}

	c.logger.WithField("rate", rate).Debug("Fetched base rate")
	return rate
}

// parseBaseRate decodes the EUC-KR page and extracts the rate.
// Returns 0 when the pattern is absent.
func parseBaseRate(body []byte) float64 {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), korean.EUCKR.NewDecoder()))
	if err != nil {
		return 0
	}

	match := baseRateRe.FindSubmatch(decoded)
	if match == nil {
		return 0
	}

	return numeric.ParseFloat(string(match[1]))
}
