package screen

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/pkg/logger"
)

// fakeSources implements every external source over in-memory fixtures
type fakeSources struct {
	listings  []contracts.Listing
	prices    map[string][]contracts.PriceBar
	tables    map[string]*contracts.FinancialTable
	failCodes map[string]int // code -> remaining failures
	baseRate  float64

	mu         sync.Mutex // failCodes는 워커들이 동시에 깎는다
	priceCalls int64
}

func (f *fakeSources) ListSymbols(ctx context.Context, market contracts.Market) ([]contracts.Listing, error) {
	return f.listings, nil
}

func (f *fakeSources) DailySeries(ctx context.Context, code string, from, to time.Time) ([]contracts.PriceBar, error) {
	atomic.AddInt64(&f.priceCalls, 1)

	f.mu.Lock()
	remaining, shouldFail := f.failCodes[code]
	if shouldFail && remaining > 0 {
		f.failCodes[code] = remaining - 1
	}
	f.mu.Unlock()

	if shouldFail && remaining > 0 {
		return nil, errors.New("simulated fetch failure")
	}
	return f.prices[code], nil
}

func (f *fakeSources) FinancialTable(ctx context.Context, code string) (*contracts.FinancialTable, error) {
	table, ok := f.tables[code]
	if !ok {
		return nil, errors.New("no table")
	}
	return table, nil
}

func (f *fakeSources) BaseRate(ctx context.Context) float64 {
	return f.baseRate
}

// fixtureTable builds a minimal valid financial table
func fixtureTable(eps, bps string) *contracts.FinancialTable {
	return &contracts.FinancialTable{
		Columns: []string{"2023.12", "2024.12", "2025.12", "2026.12(E)"},
		Rows: []contracts.FinancialRow{
			{Label: "매출액", Values: []string{"100", "110", "120", "130"}},
			{Label: "EPS(원)", Values: []string{"900", "950", eps, eps}},
			{Label: "BPS(원)", Values: []string{"9,000", "9,500", bps, bps}},
			{Label: "ROE(%)", Values: []string{"10", "10", "10", "10"}},
		},
	}
}

func testListing(code, name string, marketCap, price float64) contracts.Listing {
	return contracts.Listing{
		Code:              code,
		Name:              name,
		Market:            contracts.MarketKOSPI,
		Close:             price,
		MarketCap:         marketCap,
		SharesOutstanding: 1_000_000,
	}
}

func newTestOrchestrator(f *fakeSources) *Orchestrator {
	return NewOrchestrator(f, f, f, f, logger.NewNop()).
		WithRetryDelay(time.Millisecond)
}

func testConfig() Config {
	return Config{
		Market:          contracts.MarketKOSPI,
		TopN:            10,
		Workers:         4,
		Variant:         "blend",
		SortBy:          SortGapDesc,
		HighlightGapPct: 20,
	}
}

func TestRankByMarketCap(t *testing.T) {
	listings := []contracts.Listing{
		testListing("A", "에이", 100, 1000),
		testListing("B", "비", 300, 1000),
		testListing("C", "씨", 200, 1000),
	}

	ranked := RankByMarketCap(listings)

	require.Len(t, ranked, 3)
	assert.Equal(t, "B", ranked[0].Code)
	assert.Equal(t, 1, ranked[0].MarketCapRank)
	assert.Equal(t, "C", ranked[1].Code)
	assert.Equal(t, "A", ranked[2].Code)
	assert.Equal(t, 3, ranked[2].MarketCapRank)

	// 입력은 건드리지 않는다
	assert.Equal(t, "A", listings[0].Code)
	assert.Zero(t, listings[0].MarketCapRank)
}

func TestOrchestrator_Run(t *testing.T) {
	f := &fakeSources{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 500, 1000),
			testListing("002", "다라산업", 400, 1000),
			testListing("003", "마바물산", 300, 1000),
		},
		prices: map[string][]contracts.PriceBar{
			"001": risingBars(200),
			"002": risingBars(200),
			"003": risingBars(200),
		},
		tables: map[string]*contracts.FinancialTable{
			"001": fixtureTable("1,000", "10,000"),
			"002": fixtureTable("2,000", "20,000"),
			"003": fixtureTable("3,000", "30,000"),
		},
		baseRate: 3.25,
	}

	orch := newTestOrchestrator(f)
	records, err := orch.Run(context.Background(), testConfig())

	require.NoError(t, err)
	require.Len(t, records, 3)

	// gap 내림차순: EPS/BPS가 클수록 공정가치도 크다 (가격은 동일)
	assert.Equal(t, "003", records[0].Code)
	assert.Equal(t, "002", records[1].Code)
	assert.Equal(t, "001", records[2].Code)

	for _, r := range records {
		assert.Positive(t, r.FairTarget)
		assert.Positive(t, r.GapPct)
		assert.True(t, r.Highlight) // 공정가치가 가격의 수 배
	}
}

func TestOrchestrator_Run_SymbolFailureDropsOnlyThatSymbol(t *testing.T) {
	f := &fakeSources{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 500, 1000),
			testListing("002", "다라산업", 400, 1000),
			testListing("003", "마바물산", 300, 1000),
			testListing("004", "사아건설", 200, 1000),
		},
		prices: map[string][]contracts.PriceBar{
			"001": risingBars(200),
			"002": risingBars(200),
			"004": risingBars(200),
		},
		// 003은 재시도까지 전부 실패
		failCodes: map[string]int{"003": 10},
		tables:    map[string]*contracts.FinancialTable{},
		baseRate:  3.25,
	}

	orch := newTestOrchestrator(f)
	records, err := orch.Run(context.Background(), testConfig())

	require.NoError(t, err)
	assert.Len(t, records, 3)
	for _, r := range records {
		assert.NotEqual(t, "003", r.Code)
	}
}

func TestOrchestrator_Run_PriceRetrySucceeds(t *testing.T) {
	f := &fakeSources{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 500, 1000),
		},
		prices: map[string][]contracts.PriceBar{
			"001": risingBars(200),
		},
		// 2번 실패 후 3번째 시도에 성공
		failCodes: map[string]int{"001": 2},
		tables:    map[string]*contracts.FinancialTable{},
		baseRate:  3.25,
	}

	orch := newTestOrchestrator(f)
	records, err := orch.Run(context.Background(), testConfig())

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.EqualValues(t, 3, f.priceCalls)
}

func TestOrchestrator_Run_InsufficientHistoryDropped(t *testing.T) {
	f := &fakeSources{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 500, 1000),
			testListing("002", "다라산업", 400, 1000),
		},
		prices: map[string][]contracts.PriceBar{
			"001": risingBars(200),
			"002": risingBars(60), // 120봉 미만
		},
		tables:   map[string]*contracts.FinancialTable{},
		baseRate: 3.25,
	}

	orch := newTestOrchestrator(f)
	records, err := orch.Run(context.Background(), testConfig())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "001", records[0].Code)
}

func TestOrchestrator_Run_TopNLimitsUniverse(t *testing.T) {
	f := &fakeSources{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 500, 1000),
			testListing("002", "다라산업", 400, 1000),
			testListing("003", "마바물산", 300, 1000),
		},
		prices: map[string][]contracts.PriceBar{
			"001": risingBars(200),
			"002": risingBars(200),
			"003": risingBars(200),
		},
		tables:   map[string]*contracts.FinancialTable{},
		baseRate: 3.25,
	}

	cfg := testConfig()
	cfg.TopN = 2

	orch := newTestOrchestrator(f)
	records, err := orch.Run(context.Background(), cfg)

	require.NoError(t, err)
	// 시총 하위 003은 유니버스에서 빠진다
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.NotEqual(t, "003", r.Code)
	}
}

func TestOrchestrator_Run_HighlightStrictlyAbove(t *testing.T) {
	f := &fakeSources{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 500, 3000),
		},
		prices: map[string][]contracts.PriceBar{
			"001": flatBars(200),
		},
		// EPS 0, BPS 10000 -> blend 공정가치 = 3000 (기준금리 무관, 중립 50)
		tables: map[string]*contracts.FinancialTable{
			"001": fixtureTable("0", "10,000"),
		},
		baseRate: 3.25,
	}

	cfg := testConfig()
	cfg.HighlightGapPct = 0 // gap 0은 0 초과가 아니므로 하이라이트 안 됨

	orch := newTestOrchestrator(f)
	records, err := orch.Run(context.Background(), cfg)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 0.0, records[0].GapPct, 1e-9)
	assert.False(t, records[0].Highlight)
}

func TestOrchestrator_Run_Progress(t *testing.T) {
	f := &fakeSources{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 500, 1000),
			testListing("002", "다라산업", 400, 1000),
		},
		prices: map[string][]contracts.PriceBar{
			"001": risingBars(200),
			"002": risingBars(200),
		},
		tables:   map[string]*contracts.FinancialTable{},
		baseRate: 3.25,
	}

	var calls int64
	var final int64

	orch := newTestOrchestrator(f)
	orch.SetProgress(func(done, total int) {
		atomic.AddInt64(&calls, 1)
		if done == total {
			atomic.StoreInt64(&final, int64(done))
		}
	})

	_, err := orch.Run(context.Background(), testConfig())
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
	assert.EqualValues(t, 2, atomic.LoadInt64(&final))
}

func TestSortRecords(t *testing.T) {
	records := []contracts.AnalysisRecord{
		{Code: "A", GapPct: 10, ROE: 5, FearGreed: 70},
		{Code: "B", GapPct: 30, ROE: 15, FearGreed: 30},
		{Code: "C", GapPct: 20, ROE: 10, FearGreed: 50},
	}

	byGap := append([]contracts.AnalysisRecord(nil), records...)
	SortRecords(byGap, SortGapDesc)
	assert.Equal(t, []string{"B", "C", "A"}, codes(byGap))

	byROE := append([]contracts.AnalysisRecord(nil), records...)
	SortRecords(byROE, SortFundamentalDesc)
	assert.Equal(t, []string{"B", "C", "A"}, codes(byROE))

	byFear := append([]contracts.AnalysisRecord(nil), records...)
	SortRecords(byFear, SortDeepDiscount)
	assert.Equal(t, []string{"B", "C", "A"}, codes(byFear))
}

func TestSortRecords_StableOnTies(t *testing.T) {
	// 동점이면 입력(시총 순위) 순서 유지
	records := []contracts.AnalysisRecord{
		{Code: "A", GapPct: 10, MarketCapRank: 1},
		{Code: "B", GapPct: 10, MarketCapRank: 2},
		{Code: "C", GapPct: 10, MarketCapRank: 3},
	}

	SortRecords(records, SortGapDesc)
	assert.Equal(t, []string{"A", "B", "C"}, codes(records))
}

func codes(records []contracts.AnalysisRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Code
	}
	return out
}
