package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescan/backend/internal/contracts"
)

// day returns a date in KST at midnight
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyBars builds ascending daily bars from close prices, weekdays only
func dailyBars(start time.Time, closes []float64) []contracts.PriceBar {
	bars := make([]contracts.PriceBar, 0, len(closes))
	d := start
	for _, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		bars = append(bars, contracts.PriceBar{
			Date:   d,
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		})
		d = d.AddDate(0, 0, 1)
	}
	return bars
}

func TestWeekAnchor(t *testing.T) {
	// 2026-08-24 is a Monday; its week ends Friday 2026-08-28
	assert.Equal(t, day(2026, 8, 28), weekAnchor(day(2026, 8, 24)))
	assert.Equal(t, day(2026, 8, 28), weekAnchor(day(2026, 8, 28)))

	// Saturday/Sunday roll into the following Friday
	assert.Equal(t, day(2026, 9, 4), weekAnchor(day(2026, 8, 29)))
	assert.Equal(t, day(2026, 9, 4), weekAnchor(day(2026, 8, 30)))
}

func TestResampleWeekly(t *testing.T) {
	// Mon 8/24 .. Fri 8/28, then Mon 8/31 .. Wed 9/2
	bars := dailyBars(day(2026, 8, 24), []float64{10, 11, 12, 13, 14, 20, 21, 22})

	weeks := ResampleWeekly(bars)
	require.Len(t, weeks, 2)

	assert.Equal(t, day(2026, 8, 28), weeks[0].End)
	assert.Equal(t, 10.0, weeks[0].Open)
	assert.Equal(t, 14.0, weeks[0].Close)
	assert.Equal(t, 15.0, weeks[0].High) // high = close + 1
	assert.Equal(t, 9.0, weeks[0].Low)
	assert.Equal(t, 5000.0, weeks[0].Volume)

	assert.Equal(t, day(2026, 9, 4), weeks[1].End)
	assert.Equal(t, 20.0, weeks[1].Open)
	assert.Equal(t, 22.0, weeks[1].Close)
}

func TestResampleMonthly(t *testing.T) {
	bars := dailyBars(day(2026, 7, 27), []float64{10, 11, 12, 13, 14, 20, 21})

	months := ResampleMonthly(bars)
	require.Len(t, months, 2)

	assert.Equal(t, day(2026, 7, 1), months[0].End)
	assert.Equal(t, 10.0, months[0].Open)
	assert.Equal(t, day(2026, 8, 1), months[1].End)
	assert.Equal(t, 21.0, months[1].Close)
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	out := SMA(values, 3)
	require.Len(t, out, 5)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMA_WindowLargerThanSeries(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSI(t *testing.T) {
	// Strictly rising: no losses, RSI saturates at 100
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out := RSI(rising, 5)
	assert.True(t, math.IsNaN(out[4]))
	assert.InDelta(t, 100.0, out[5], 1e-9)
	assert.InDelta(t, 100.0, Last(out), 1e-9)

	// Strictly falling: no gains, RSI is 0
	falling := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	out = RSI(falling, 5)
	assert.InDelta(t, 0.0, Last(out), 1e-9)

	// Flat: no gains and no losses, 0/0 stays NaN
	flat := []float64{5, 5, 5, 5, 5, 5, 5, 5}
	out = RSI(flat, 5)
	assert.True(t, math.IsNaN(Last(out)))
}

func TestRSI_Mixed(t *testing.T) {
	// Equal gains and losses over the window give RSI 50
	values := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10}
	out := RSI(values, 4)
	assert.InDelta(t, 50.0, Last(out), 1e-9)
}

func TestLast(t *testing.T) {
	assert.True(t, math.IsNaN(Last(nil)))
	assert.Equal(t, 3.0, Last([]float64{1, 2, 3}))
}
