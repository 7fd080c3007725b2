package contracts

import (
	"context"
	"time"
)

// ListingSource returns the symbol universe for a market
// ⭐ SSOT: 시장 상장 목록 인터페이스
type ListingSource interface {
	ListSymbols(ctx context.Context, market Market) ([]Listing, error)
}

// PriceSource returns a daily OHLCV series for a symbol
// ⭐ SSOT: 일봉 시계열 인터페이스
type PriceSource interface {
	DailySeries(ctx context.Context, code string, from, to time.Time) ([]PriceBar, error)
}

// FundamentalsSource returns the scraped financial statement table.
// Best-effort: 비어 있거나 파싱 불가능한 테이블이 올 수 있고,
// 호출자는 전부 0으로 강등해야 한다.
type FundamentalsSource interface {
	FinancialTable(ctx context.Context, code string) (*FinancialTable, error)
}

// BaseRateSource returns the macro base rate in percent.
// 실패 시 에러 대신 하드코딩된 폴백 값을 반환한다.
type BaseRateSource interface {
	BaseRate(ctx context.Context) float64
}
