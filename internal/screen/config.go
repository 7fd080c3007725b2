// Package screen evaluates the technical/fundamental rule set over a
// symbol universe and aggregates pass/fail results through a bounded
// worker pool.
package screen

import (
	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/valuation"
	"github.com/wonny/valuescan/backend/pkg/config"
)

// SortKey selects the final stable ordering of the result set
type SortKey string

const (
	SortGapDesc         SortKey = "gap"           // 괴리율 높은 순
	SortFundamentalDesc SortKey = "fundamental"   // ROE 높은 순
	SortDeepDiscount    SortKey = "deep_discount" // 공포지수 낮은 순
)

// ParseSortKey normalizes a sort key, defaulting to gap
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortFundamentalDesc, SortDeepDiscount:
		return SortKey(s)
	default:
		return SortGapDesc
	}
}

// Rules is the user-selected predicate set, evaluated with AND
// semantics: 켜진 규칙을 전부 통과해야 결과에 남는다.
// 0 값 임계치는 해당 규칙 비활성을 뜻한다.
//
// 런타임 전역 상태 금지: 호출 시점에 스냅샷된 이 구조체만 본다.
type Rules struct {
	MonthlyCandlePositive bool
	WeeklyHigherHigh      bool
	WeeklyHigherLow       bool
	RSIUnder70            bool
	MA60BelowMA120        bool
	MA20BelowMA60         bool
	MA5AboveMA10          bool
	MA10AboveMA20         bool
	MA5NonDecreasing      bool
	MA10Rising            bool
	MA20Rising            bool
	MA5Breakout           bool

	MinTradingValue float64 // 억 단위, 0이면 비활성
	ExcludeByName   bool    // 스팩/ETF/ETN/지주/우선주 등 제외

	// Fundamentals gates (각각 독립 토글, 0이면 비활성)
	MinReserveRatio float64 // 유보율 하한 (%), 통상 500
	MaxDebtRatio    float64 // 부채비율 상한 (%), 통상 150
	MinROE          float64 // ROE 하한 (%), 통상 5
}

// NeedsFundamentals reports whether any fundamentals gate is enabled.
// 게이트가 켜져 있으면 재무 데이터 수집 실패는 종목 탈락이다.
func (r Rules) NeedsFundamentals() bool {
	return r.MinReserveRatio > 0 || r.MaxDebtRatio > 0 || r.MinROE > 0
}

// Config is the immutable per-run configuration
type Config struct {
	Market          contracts.Market
	TopN            int
	Workers         int
	Variant         valuation.Variant
	SortBy          SortKey
	HighlightGapPct float64
	Rules           Rules
}

// FromAppConfig snapshots the env-driven defaults into a run config
func FromAppConfig(app *config.Config, market contracts.Market) Config {
	return Config{
		Market:          market,
		TopN:            app.Screen.TopN,
		Workers:         app.Screen.Workers,
		Variant:         valuation.ParseVariant(app.Screen.Variant),
		SortBy:          ParseSortKey(app.Screen.SortBy),
		HighlightGapPct: app.Screen.HighlightGapPct,
		Rules: Rules{
			MinTradingValue: app.Screen.MinTradingValue,
		},
	}
}
