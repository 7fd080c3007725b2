package screen

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescan/backend/internal/contracts"
)

type countingListingSource struct {
	listings []contracts.Listing
	calls    int64
}

func (c *countingListingSource) ListSymbols(ctx context.Context, market contracts.Market) ([]contracts.Listing, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.listings, nil
}

func TestCachedListingSource_FetchesOncePerMarket(t *testing.T) {
	src := &countingListingSource{
		listings: []contracts.Listing{testListing("001", "가나전자", 500, 1000)},
	}
	cached := NewCachedListingSource(src, nil)

	ctx := context.Background()

	first, err := cached.ListSymbols(ctx, contracts.MarketKOSPI)
	require.NoError(t, err)
	second, err := cached.ListSymbols(ctx, contracts.MarketKOSPI)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(&src.calls))

	// 다른 시장은 별도 스냅샷
	_, err = cached.ListSymbols(ctx, contracts.MarketKOSDAQ)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&src.calls))
}

func TestCachedListingSource_CallerMutationDoesNotLeak(t *testing.T) {
	src := &countingListingSource{
		listings: []contracts.Listing{
			testListing("001", "가나전자", 100, 1000),
			testListing("002", "다라산업", 500, 1000),
		},
	}
	cached := NewCachedListingSource(src, nil)

	ctx := context.Background()

	first, err := cached.ListSymbols(ctx, contracts.MarketKOSPI)
	require.NoError(t, err)

	// 호출자가 순위를 매겨도 캐시된 스냅샷은 그대로
	_ = RankByMarketCap(first)
	first[0].Name = "변조"

	second, err := cached.ListSymbols(ctx, contracts.MarketKOSPI)
	require.NoError(t, err)
	assert.Equal(t, "가나전자", second[0].Name)
	assert.Zero(t, second[0].MarketCapRank)
}
