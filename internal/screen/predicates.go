package screen

import (
	"math"
	"strings"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/series"
)

// excludeKeywords marks fund-like or non-operating listings
// (스팩/ETF/ETN/지주/리츠 등). ExcludeByName 규칙이 켜졌을 때만 적용
var excludeKeywords = []string{
	"스팩", "SPAC", "ETF", "ETN", "홀딩스", "지주", "리츠", "인프라",
}

// preferredSuffixes marks Korean preferred-share tickers
var preferredSuffixes = []string{"우", "우B", "우C"}

// ExcludedName reports whether a listing name matches the blacklist
func ExcludedName(name string) bool {
	upper := strings.ToUpper(name)
	for _, kw := range excludeKeywords {
		if strings.Contains(upper, strings.ToUpper(kw)) {
			return true
		}
	}
	for _, suffix := range preferredSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Evaluate checks every enabled rule against the derived state.
// Returns the name of the first failed rule, or "" when all pass.
// 실패 사유는 탈락 집계 로그에 그대로 쓰인다.
//
// gatesOK=false는 재무 수집 실패를 뜻한다: 게이트가 하나라도 켜져
// 있으면 그 자체로 탈락, 아니면 플레이스홀더로 통과.
func (r Rules) Evaluate(ind *Indicators, listing contracts.Listing, gates contracts.GateRatios, gatesOK bool) string {
	if r.ExcludeByName && ExcludedName(listing.Name) {
		return "name_exclusion"
	}

	if r.MonthlyCandlePositive {
		cur, prev := last2(ind.Monthly)
		if !(cur.Close > prev.Close) {
			return "monthly_candle"
		}
	}

	if r.WeeklyHigherHigh {
		cur, prev := last2(ind.Weekly)
		if !(cur.High > prev.High) {
			return "weekly_higher_high"
		}
	}

	if r.WeeklyHigherLow {
		cur, prev := last2(ind.Weekly)
		if !(cur.Low > prev.Low) {
			return "weekly_higher_low"
		}
	}

	if r.RSIUnder70 {
		rsi := series.Last(ind.RSI14)
		// NaN도 탈락: 과열 여부를 판정할 수 없는 종목은 거른다
		if math.IsNaN(rsi) || rsi > 70 {
			return "rsi_over_70"
		}
	}

	if r.MA60BelowMA120 && !(series.Last(ind.MA60) <= series.Last(ind.MA120)) {
		return "ma60_below_ma120"
	}

	if r.MA20BelowMA60 && !(series.Last(ind.MA20) <= series.Last(ind.MA60)) {
		return "ma20_below_ma60"
	}

	if r.MA5AboveMA10 && !(series.Last(ind.MA5) >= series.Last(ind.MA10)) {
		return "ma5_above_ma10"
	}

	if r.MA10AboveMA20 && !(series.Last(ind.MA10) >= series.Last(ind.MA20)) {
		return "ma10_above_ma20"
	}

	if r.MA5NonDecreasing && !slopeAtLeastFlat(ind.MA5) {
		return "ma5_slope"
	}

	if r.MA10Rising && !slopeRising(ind.MA10) {
		return "ma10_slope"
	}

	if r.MA20Rising && !slopeRising(ind.MA20) {
		return "ma20_slope"
	}

	if r.MA5Breakout && !breakout(ind.MA5, breakoutWindow) {
		return "ma5_breakout"
	}

	if r.MinTradingValue > 0 {
		if ind.MaxTradingValue(listing.Market.FxRate()) < r.MinTradingValue {
			return "trading_value"
		}
	}

	// Fundamentals gates
	if r.NeedsFundamentals() && !gatesOK {
		return "fundamentals_fetch"
	}
	if r.MinReserveRatio > 0 && gates.ReserveRatio < r.MinReserveRatio {
		return "reserve_ratio"
	}
	if r.MaxDebtRatio > 0 && gates.DebtRatio > r.MaxDebtRatio {
		return "debt_ratio"
	}
	if r.MinROE > 0 && gates.ROE < r.MinROE {
		return "roe"
	}

	return ""
}

// last2 returns the final two candles (caller guarantees length >= 2)
func last2(candles []series.Candle) (cur, prev series.Candle) {
	n := len(candles)
	return candles[n-1], candles[n-2]
}

// slopeAtLeastFlat: ma(t) >= ma(t-1)
func slopeAtLeastFlat(ma []float64) bool {
	n := len(ma)
	if n < 2 {
		return false
	}
	return ma[n-1] >= ma[n-2]
}

// slopeRising: ma(t) > ma(t-1)
func slopeRising(ma []float64) bool {
	n := len(ma)
	if n < 2 {
		return false
	}
	return ma[n-1] > ma[n-2]
}

// breakout: ma(t)가 직전 window개 봉의 ma 최대치를 상회 (현재 봉 제외)
func breakout(ma []float64, window int) bool {
	n := len(ma)
	if n < window+1 {
		return false
	}

	max := math.Inf(-1)
	for _, v := range ma[n-1-window : n-1] {
		if !math.IsNaN(v) && v > max {
			max = v
		}
	}
	return ma[n-1] > max
}
