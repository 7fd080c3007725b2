package valuation

import (
	"math"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/series"
)

// NeutralFearGreed is the fail-open sentiment score.
// 짧은 이력이 배치를 죽이면 안 되므로 실패는 항상 중립 50.
const NeutralFearGreed = 50.0

const (
	fearGreedMinWeeks = 20
	rsiWeeks          = 14
	disparityWeeks    = 20
)

// FearGreedWeekly computes the 0-100 fear/greed score from a daily
// series: 주봉(금요일 마감) 리샘플 후 RSI(14주) 50% + 이격도(20주) 50%.
//
//	이격도 점수: 90 미만 0, 110 초과 100, 사이는 (이격도-90)*5 선형
//
// 주봉 20개 미만이거나 최종 값이 NaN이면 중립 50.
func FearGreedWeekly(daily []contracts.PriceBar) float64 {
	weekly := series.ResampleWeekly(daily)
	if len(weekly) < fearGreedMinWeeks {
		return NeutralFearGreed
	}

	closes := series.Closes(weekly)

	rsi := series.Last(series.RSI(closes, rsiWeeks))

	sma := series.Last(series.SMA(closes, disparityWeeks))
	disparity := series.Last(closes) / sma * 100

	var disparityScore float64
	switch {
	case disparity < 90:
		disparityScore = 0
	case disparity > 110:
		disparityScore = 100
	default:
		// NaN이면 여기로 떨어져 NaN 유지 → 아래에서 중립 처리
		disparityScore = (disparity - 90) * 5
	}

	score := rsi*0.5 + disparityScore*0.5
	if math.IsNaN(score) {
		return NeutralFearGreed
	}
	return score
}
