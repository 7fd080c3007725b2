// Package fundamentals extracts per-period EPS/BPS and balance-sheet
// figures from scraped financial statement tables.
package fundamentals

import (
	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/numeric"
	"github.com/wonny/valuescan/backend/pkg/logger"
)

// Row labels matched by substring containment
const (
	labelEPS     = "EPS"
	labelBPS     = "BPS"
	labelDebt    = "부채총계"
	labelEquity  = "자본총계"
	labelROE     = "ROE"
	labelDebtPct = "부채비율"
	labelReserve = "유보율"

	// Structural markers: 이 중 하나도 없으면 재무 섹션이 아님
	markerRevenue         = "매출액"
	markerOperatingProfit = "영업이익"
)

// Extractor pulls prior/target period figures out of a financial table
// ⭐ SSOT: 재무제표 수치 추출은 여기서만
type Extractor struct {
	strategy ColumnStrategy
	logger   *logger.Logger
}

// NewExtractor creates an extractor with the given column strategy
func NewExtractor(strategy ColumnStrategy, log *logger.Logger) *Extractor {
	if strategy == nil {
		strategy = AnnualFirstStrategy{}
	}
	return &Extractor{
		strategy: strategy,
		logger:   log,
	}
}

// Extract returns the prior-confirmed and forward-target figures.
//
// 실패 모드는 전부 0 수치로의 강등이다: 인식 가능한 재무 섹션이 없거나
// (매출액/영업이익 행 부재), 행이 아예 없으면 모든 필드가 0인 figures를
// 돌려준다. 호출자는 가격까지 없을 때만 종목을 탈락시킨다.
func (e *Extractor) Extract(table *contracts.FinancialTable) (prior, target contracts.PeriodFigures) {
	prior.Role = contracts.PeriodPriorConfirmed
	target.Role = contracts.PeriodForwardEstimate

	if table == nil || !e.hasFinancialSection(table) {
		return prior, target
	}

	pick := e.strategy.Pick(table.Columns)

	prior.EPS = cell(table, labelEPS, pick.Prior)
	prior.BPS = cell(table, labelBPS, pick.Prior)
	prior.TotalDebt = cell(table, labelDebt, pick.Prior)
	prior.TotalEquity = cell(table, labelEquity, pick.Prior)

	target.EPS = cell(table, labelEPS, pick.Target)
	target.BPS = cell(table, labelBPS, pick.Target)
	target.TotalDebt = cell(table, labelDebt, pick.Target)
	target.TotalEquity = cell(table, labelEquity, pick.Target)

	// 추정 기간 대차대조표 수치만 폴백: 0이면 최근 분기 컬럼,
	// 그래도 0이면 확정 연도 값. EPS/BPS는 분기에서 채우지 않는다.
	// 값 0과 "행 없음"은 여기서 구분되지 않는다.
	target.TotalDebt = fallbackChain(target.TotalDebt,
		cell(table, labelDebt, pick.Latest), prior.TotalDebt)
	target.TotalEquity = fallbackChain(target.TotalEquity,
		cell(table, labelEquity, pick.Latest), prior.TotalEquity)

	if e.logger != nil {
		e.logger.WithFields(map[string]interface{}{
			"prior_col":    pick.Prior,
			"target_col":   pick.Target,
			"has_estimate": pick.HasEstimate,
		}).Debug("Extracted period figures")
	}

	return prior, target
}

// GateRatios extracts the summary ratios backing the fundamentals
// gates (ROE, 부채비율, 유보율) at the prior-confirmed column.
func (e *Extractor) GateRatios(table *contracts.FinancialTable) contracts.GateRatios {
	if table == nil || !e.hasFinancialSection(table) {
		return contracts.GateRatios{}
	}

	pick := e.strategy.Pick(table.Columns)
	return contracts.GateRatios{
		ROE:          cell(table, labelROE, pick.Prior),
		DebtRatio:    cell(table, labelDebtPct, pick.Prior),
		ReserveRatio: cell(table, labelReserve, pick.Prior),
	}
}

// hasFinancialSection checks the structural markers
func (e *Extractor) hasFinancialSection(table *contracts.FinancialTable) bool {
	if _, ok := table.FindRow(markerRevenue); ok {
		return true
	}
	_, ok := table.FindRow(markerOperatingProfit)
	return ok
}

// cell parses one table cell with the silent-zero policy
func cell(table *contracts.FinancialTable, label string, col int) float64 {
	return numeric.ParseFloat(table.CellAt(label, col))
}

// fallbackChain substitutes the first non-zero candidate
func fallbackChain(value float64, candidates ...float64) float64 {
	if value != 0 {
		return value
	}
	for _, c := range candidates {
		if c != 0 {
			return c
		}
	}
	return 0
}
