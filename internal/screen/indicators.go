package screen

import (
	"errors"
	"math"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/series"
)

// ErrInsufficientHistory marks a symbol dropped before predicate
// evaluation: 최장 윈도우 지표(MA120)를 계산할 이력이 없다.
var ErrInsufficientHistory = errors.New("insufficient price history")

const (
	minDailyBars   = 120
	breakoutWindow = 60
	tradingValBars = 120
)

// Indicators is the derived per-symbol technical state
type Indicators struct {
	Daily   []contracts.PriceBar
	Weekly  []series.Candle
	Monthly []series.Candle

	MA5   []float64
	MA10  []float64
	MA20  []float64
	MA60  []float64
	MA120 []float64

	RSI14 []float64 // daily RSI
}

// BuildIndicators derives resamples and moving averages from an
// ascending daily series.
//
// 하드 이력 하한: 일봉 120개 미만, 주봉/월봉 2개 미만, 또는 MA120
// 미정의면 ErrInsufficientHistory. 해당 종목은 분석 없이 탈락한다.
func BuildIndicators(daily []contracts.PriceBar) (*Indicators, error) {
	if len(daily) < minDailyBars {
		return nil, ErrInsufficientHistory
	}

	weekly := series.ResampleWeekly(daily)
	monthly := series.ResampleMonthly(daily)
	if len(weekly) < 2 || len(monthly) < 2 {
		return nil, ErrInsufficientHistory
	}

	closes := series.DailyCloses(daily)

	ind := &Indicators{
		Daily:   daily,
		Weekly:  weekly,
		Monthly: monthly,
		MA5:     series.SMA(closes, 5),
		MA10:    series.SMA(closes, 10),
		MA20:    series.SMA(closes, 20),
		MA60:    series.SMA(closes, 60),
		MA120:   series.SMA(closes, 120),
		RSI14:   series.RSI(closes, 14),
	}

	if math.IsNaN(series.Last(ind.MA120)) {
		return nil, ErrInsufficientHistory
	}

	return ind, nil
}

// MaxTradingValue returns the max of 거래대금(억) over the trailing
// window: close * volume * fxRate / 1e8.
func (ind *Indicators) MaxTradingValue(fxRate float64) float64 {
	start := len(ind.Daily) - tradingValBars
	if start < 0 {
		start = 0
	}

	max := 0.0
	for _, bar := range ind.Daily[start:] {
		v := bar.Close * bar.Volume * fxRate / 1e8
		if v > max {
			max = v
		}
	}
	return max
}
