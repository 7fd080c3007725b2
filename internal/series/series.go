// Package series provides the time-series primitives shared by the
// sentiment index and the technical screener: weekly/monthly resampling,
// simple moving averages and RSI.
//
// 입력 일봉은 날짜 오름차순이어야 한다. 미정의 구간은 NaN으로 표시되며
// 호출자가 중립/탈락 정책을 결정한다.
package series

import (
	"math"
	"time"

	"github.com/wonny/valuescan/backend/internal/contracts"
)

// Candle is one resampled bar (weekly or monthly)
type Candle struct {
	End    time.Time // period anchor (금요일 / 월말이 속한 달의 1일)
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// weekAnchor returns the Friday ending the week containing d.
// 토/일요일은 다음 금요일로 귀속된다 (W-FRI resampling).
func weekAnchor(d time.Time) time.Time {
	offset := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	anchor := d.AddDate(0, 0, offset)
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
}

// monthAnchor returns the first day of the month containing d
func monthAnchor(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// resample groups ascending daily bars by anchor and aggregates OHLCV
func resample(bars []contracts.PriceBar, anchor func(time.Time) time.Time) []Candle {
	var out []Candle

	for _, bar := range bars {
		key := anchor(bar.Date)

		if len(out) == 0 || !out[len(out)-1].End.Equal(key) {
			out = append(out, Candle{
				End:    key,
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: bar.Volume,
			})
			continue
		}

		cur := &out[len(out)-1]
		if bar.High > cur.High {
			cur.High = bar.High
		}
		if bar.Low < cur.Low {
			cur.Low = bar.Low
		}
		cur.Close = bar.Close
		cur.Volume += bar.Volume
	}

	return out
}

// ResampleWeekly converts daily bars into weekly candles ending Friday
func ResampleWeekly(bars []contracts.PriceBar) []Candle {
	return resample(bars, weekAnchor)
}

// ResampleMonthly converts daily bars into monthly candles
func ResampleMonthly(bars []contracts.PriceBar) []Candle {
	return resample(bars, monthAnchor)
}

// Closes extracts close prices from candles
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// DailyCloses extracts close prices from daily bars
func DailyCloses(bars []contracts.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SMA returns the simple moving average aligned with values.
// 윈도우가 차기 전 구간은 NaN.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RSI returns the rolling-mean RSI aligned with values.
// gain/loss는 단순 이동 평균 (Wilder smoothing 아님).
// loss가 0이면 float 연산 그대로 둔다: gain도 0이면 NaN, 아니면 100.
func RSI(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) <= period {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(values); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i >= period {
			avgGain := gainSum / float64(period)
			avgLoss := lossSum / float64(period)
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// Last returns the final element, or NaN for an empty slice
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
