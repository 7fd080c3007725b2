package contracts

import (
	"strings"
	"time"
)

// Market identifies a stock exchange
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
	MarketNASDAQ Market = "NASDAQ"
)

// FxRate returns the KRW conversion rate used for trading value
// 거래대금 환산용 고정 환율 (해외 시장만 1400)
func (m Market) FxRate() float64 {
	if m == MarketNASDAQ {
		return 1400
	}
	return 1
}

// IsDomestic reports whether the market is a Korean exchange
func (m Market) IsDomestic() bool {
	return m == MarketKOSPI || m == MarketKOSDAQ
}

// ParseMarket normalizes a market name, defaulting to KOSPI
func ParseMarket(s string) Market {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KOSDAQ":
		return MarketKOSDAQ
	case "NASDAQ":
		return MarketNASDAQ
	default:
		return MarketKOSPI
	}
}

// Listing is one symbol from the market listing source.
// 실행 시작 시 한 번 생성되고 이후 불변
type Listing struct {
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Market            Market  `json:"market"`
	Close             float64 `json:"close"`
	MarketCap         float64 `json:"market_cap"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	MarketCapRank     int     `json:"market_cap_rank"` // 1-based, 시총 내림차순
}

// PriceBar is one daily OHLCV bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PeriodRole tags which reporting period figures came from
type PeriodRole string

const (
	PeriodPriorConfirmed  PeriodRole = "prior_confirmed"
	PeriodForwardEstimate PeriodRole = "forward_estimate"
	PeriodLatestQuarter   PeriodRole = "latest_quarter"
)

// PeriodFigures holds per-period fundamentals.
// TotalDebt/TotalEquity는 공시 단위인 억 원 그대로 보관하며, 주당
// 계산 직전에만 1e8을 곱해 원 단위로 환산한다.
//
// 0은 "없음" 센티널을 겸한다: 소스 테이블의 진짜 0 값과 "행 없음"을
// 구분할 수 없고, 폴백 체인은 이 기준으로 동작한다 (알려진 한계).
type PeriodFigures struct {
	Role        PeriodRole `json:"role"`
	EPS         float64    `json:"eps"`
	BPS         float64    `json:"bps"`
	TotalDebt   float64    `json:"total_debt"`   // 억
	TotalEquity float64    `json:"total_equity"` // 억
}

// FinancialRow is one labeled line item of a scraped financial table
type FinancialRow struct {
	Label  string   `json:"label"`
	Values []string `json:"values"` // aligned with FinancialTable.Columns
}

// FinancialTable is the raw parsed financial statement table.
// Columns are period labels (YYYY.MM, estimates suffixed "(E)"),
// rows are line items matched by substring.
type FinancialTable struct {
	Columns []string       `json:"columns"`
	Rows    []FinancialRow `json:"rows"`
}

// FindRow returns the first row whose label contains substr
func (t *FinancialTable) FindRow(substr string) (FinancialRow, bool) {
	for _, row := range t.Rows {
		if strings.Contains(row.Label, substr) {
			return row, true
		}
	}
	return FinancialRow{}, false
}

// CellAt returns the raw cell of the first row matching substr at col.
// Out of range or missing row returns "" (fail-open).
func (t *FinancialTable) CellAt(substr string, col int) string {
	row, ok := t.FindRow(substr)
	if !ok || col < 0 || col >= len(row.Values) {
		return ""
	}
	return row.Values[col]
}

// FairValue is a computed fair price estimate
type FairValue struct {
	BasePrice   float64 `json:"base_price"`
	DebtPenalty bool    `json:"debt_penalty"`
	FinalPrice  float64 `json:"final_price"`
}

// GateRatios are the summary ratios backing the fundamentals gates
type GateRatios struct {
	ROE          float64 `json:"roe"`
	DebtRatio    float64 `json:"debt_ratio"`
	ReserveRatio float64 `json:"reserve_ratio"`
}

// AnalysisRecord is one row of final screening output.
// 워커 하나가 생성하며 결과 집합에 추가된 뒤에는 불변.
type AnalysisRecord struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Market        Market  `json:"market"`
	MarketCapRank int     `json:"market_cap_rank"`
	Price         float64 `json:"price"`
	FairPrior     float64 `json:"fair_prior"`
	FairTarget    float64 `json:"fair_target"`
	GapPct        float64 `json:"gap_pct"` // (FairTarget-Price)/Price*100
	FearGreed     float64 `json:"fear_greed"`
	ROE           float64 `json:"roe"`
	EPS           float64 `json:"eps"`
	BPS           float64 `json:"bps"`
	DebtRatio     float64 `json:"debt_ratio"`
	ReserveRatio  float64 `json:"reserve_ratio"`
	Highlight     bool    `json:"highlight"` // GapPct > threshold (strict)
}
