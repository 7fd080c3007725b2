package screen

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/fundamentals"
	"github.com/wonny/valuescan/backend/internal/valuation"
	"github.com/wonny/valuescan/backend/pkg/logger"
)

// ProgressFunc receives completed/total after each finished job
type ProgressFunc func(done, total int)

// DefaultRetryDelay is the fixed wait between price fetch attempts
const DefaultRetryDelay = 1 * time.Second

// priceRetries: 가격 시계열만 재시도 (최대 2회 추가, 고정 지연)
const priceRetries = 2

// chartLookbackYears: 주봉 심리지표에 2년치 일봉이 필요
const chartLookbackYears = 2

// Orchestrator fans per-symbol analysis jobs over a bounded worker
// pool and aggregates pass/fail results into a ranked set.
// ⭐ SSOT: 스크리닝 오케스트레이션은 여기서만
type Orchestrator struct {
	listings  contracts.ListingSource
	prices    contracts.PriceSource
	fins      contracts.FundamentalsSource
	rates     contracts.BaseRateSource
	extractor *fundamentals.Extractor
	logger    *logger.Logger

	retryDelay time.Duration
	progress   ProgressFunc
}

// NewOrchestrator creates an orchestrator over the external sources
func NewOrchestrator(
	listings contracts.ListingSource,
	prices contracts.PriceSource,
	fins contracts.FundamentalsSource,
	rates contracts.BaseRateSource,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		listings:   listings,
		prices:     prices,
		fins:       fins,
		rates:      rates,
		extractor:  fundamentals.NewExtractor(fundamentals.AnnualFirstStrategy{}, log),
		logger:     log.WithField("module", "screen"),
		retryDelay: DefaultRetryDelay,
	}
}

// WithRetryDelay overrides the fixed price-fetch retry delay
func (o *Orchestrator) WithRetryDelay(d time.Duration) *Orchestrator {
	o.retryDelay = d
	return o
}

// SetProgress registers the progress callback
func (o *Orchestrator) SetProgress(fn ProgressFunc) {
	o.progress = fn
}

// Run fetches the market listing, ranks it by market cap and screens
// the top N symbols.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) ([]contracts.AnalysisRecord, error) {
	listings, err := o.listings.ListSymbols(ctx, cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	listings = RankByMarketCap(listings)
	if cfg.TopN > 0 && len(listings) > cfg.TopN {
		listings = listings[:cfg.TopN]
	}

	return o.RunListings(ctx, listings, cfg)
}

// RankByMarketCap sorts descending by market cap and assigns 1-based
// ranks. 정렬은 안정적이어야 재현 가능한 픽스처가 된다.
func RankByMarketCap(listings []contracts.Listing) []contracts.Listing {
	ranked := make([]contracts.Listing, len(listings))
	copy(ranked, listings)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MarketCap > ranked[j].MarketCap
	})
	for i := range ranked {
		ranked[i].MarketCapRank = i + 1
	}
	return ranked
}

// RunListings screens an already-ranked listing snapshot.
//
// 잡 하나의 실패(네트워크, 파싱, 이력 부족)는 그 종목만 제외한다.
// 배치 전체는 절대 중단되지 않는다. 전체 결과는 모든 잡이 끝난 뒤에만
// 사용 가능하다 (배리어).
func (o *Orchestrator) RunListings(ctx context.Context, listings []contracts.Listing, cfg Config) ([]contracts.AnalysisRecord, error) {
	total := len(listings)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total && total > 0 {
		workers = total
	}

	o.logger.WithFields(map[string]interface{}{
		"market":  cfg.Market,
		"symbols": total,
		"workers": workers,
		"variant": cfg.Variant,
	}).Info("Starting screening run")

	// Variant A만 기준금리가 필요. 소스가 자체 폴백(3.25)을 가진다.
	var baseRate float64
	if cfg.Variant == valuation.VariantBlend {
		baseRate = o.rates.BaseRate(ctx)
	}

	jobCh := make(chan contracts.Listing, total)
	resultCh := make(chan *contracts.AnalysisRecord, total)

	var done int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for listing := range jobCh {
				select {
				case <-ctx.Done():
					resultCh <- nil
					o.reportProgress(&done, total)
					continue
				default:
				}

				record, reason, err := o.analyze(ctx, listing, baseRate, cfg)
				if err != nil {
					o.logger.WithError(err).WithFields(map[string]interface{}{
						"worker": workerID,
						"code":   listing.Code,
					}).Warn("Symbol analysis failed")
				} else if reason != "" {
					o.logger.WithFields(map[string]interface{}{
						"worker": workerID,
						"code":   listing.Code,
						"filter": reason,
					}).Debug("Symbol filtered")
				}

				resultCh <- record
				o.reportProgress(&done, total)
			}
		}(i)
	}

	for _, listing := range listings {
		jobCh <- listing
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	records := make([]contracts.AnalysisRecord, 0, total)
	for record := range resultCh {
		if record != nil {
			records = append(records, *record)
		}
	}

	SortRecords(records, cfg.SortBy)

	o.logger.WithFields(map[string]interface{}{
		"passed":  len(records),
		"dropped": total - len(records),
	}).Info("Screening run completed")

	return records, nil
}

// reportProgress bumps the completion counter and notifies the callback
func (o *Orchestrator) reportProgress(done *int64, total int) {
	n := atomic.AddInt64(done, 1)
	if o.progress != nil {
		o.progress(int(n), total)
	}
}

// analyze runs the full scoring pipeline for one symbol.
// Returns (record, "", nil) on pass, (nil, filterName, nil) when a
// rule rejected it, (nil, "", err) on a hard fetch failure.
func (o *Orchestrator) analyze(ctx context.Context, listing contracts.Listing, baseRate float64, cfg Config) (*contracts.AnalysisRecord, string, error) {
	// 이름 제외는 네트워크 호출 전에 (가장 싼 규칙 먼저)
	if cfg.Rules.ExcludeByName && ExcludedName(listing.Name) {
		return nil, "name_exclusion", nil
	}

	to := time.Now()
	from := to.AddDate(-chartLookbackYears, 0, 0)

	daily, err := o.fetchPricesWithRetry(ctx, listing.Code, from, to)
	if err != nil {
		return nil, "", fmt.Errorf("fetch prices: %w", err)
	}

	sort.SliceStable(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})

	price := listing.Close
	if price <= 0 && len(daily) > 0 {
		price = daily[len(daily)-1].Close
	}
	if price <= 0 {
		// 가격이 전혀 없는 종목만 탈락. 공정가치 0은 여전히 출력된다.
		return nil, "no_price", nil
	}

	ind, err := BuildIndicators(daily)
	if err != nil {
		return nil, "history", nil
	}

	// Fundamentals: best-effort. 실패는 전부 0으로 강등되고, 게이트가
	// 켜진 경우에만 탈락 사유가 된다.
	table, finErr := o.fins.FinancialTable(ctx, listing.Code)
	gatesOK := finErr == nil && table != nil
	if finErr != nil {
		table = nil
	}

	prior, target := o.extractor.Extract(table)
	gates := o.extractor.GateRatios(table)

	if reason := cfg.Rules.Evaluate(ind, listing, gates, gatesOK); reason != "" {
		return nil, reason, nil
	}

	fearGreed := valuation.FearGreedWeekly(daily)

	inputs := valuation.Inputs{
		BaseRatePct: baseRate,
		FearGreed:   fearGreed,
		Shares:      listing.SharesOutstanding,
	}
	fairPrior := valuation.FairValueFor(cfg.Variant, prior, inputs)
	fairTarget := valuation.FairValueFor(cfg.Variant, target, inputs)

	gap := valuation.GapPct(fairTarget.FinalPrice, price)

	record := &contracts.AnalysisRecord{
		Code:          listing.Code,
		Name:          listing.Name,
		Market:        listing.Market,
		MarketCapRank: listing.MarketCapRank,
		Price:         price,
		FairPrior:     fairPrior.FinalPrice,
		FairTarget:    fairTarget.FinalPrice,
		GapPct:        gap,
		FearGreed:     fearGreed,
		ROE:           valuation.ROEFromPerShare(prior.EPS, prior.BPS),
		EPS:           prior.EPS,
		BPS:           prior.BPS,
		DebtRatio:     gates.DebtRatio,
		ReserveRatio:  gates.ReserveRatio,
		Highlight:     gap > cfg.HighlightGapPct,
	}

	return record, "", nil
}

// fetchPricesWithRetry fetches the daily series with the fixed retry
// policy: 최대 2회 추가 시도, 시도 사이 고정 지연.
func (o *Orchestrator) fetchPricesWithRetry(ctx context.Context, code string, from, to time.Time) ([]contracts.PriceBar, error) {
	var lastErr error

	for attempt := 0; attempt <= priceRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.retryDelay):
			}
		}

		bars, err := o.prices.DailySeries(ctx, code, from, to)
		if err == nil {
			return bars, nil
		}
		lastErr = err

		o.logger.WithError(err).WithFields(map[string]interface{}{
			"code":    code,
			"attempt": attempt + 1,
		}).Warn("Price fetch failed")
	}

	return nil, lastErr
}

// SortRecords stably sorts the result set by the selected key.
// 안정 정렬이어야 동점 시 시총 순위(입력 순서)가 유지된다.
func SortRecords(records []contracts.AnalysisRecord, key SortKey) {
	switch key {
	case SortFundamentalDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ROE > records[j].ROE
		})
	case SortDeepDiscount:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].FearGreed < records[j].FearGreed
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].GapPct > records[j].GapPct
		})
	}
}
