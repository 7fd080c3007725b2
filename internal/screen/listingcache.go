package screen

import (
	"context"
	"sync"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/pkg/redis"
)

// CachedListingSource memoizes the market listing per process, with an
// optional redis TTL layer shared across processes.
//
// 상장 목록은 세션 단위로 안정적이다: 한 번 받아오면 같은 프로세스의
// 모든 실행이 같은 스냅샷을 본다.
type CachedListingSource struct {
	src   contracts.ListingSource
	cache *redis.Cache

	mu   sync.Mutex
	memo map[contracts.Market][]contracts.Listing
}

// NewCachedListingSource wraps a listing source with caching.
// cache는 nil일 수 있다 (메모리 캐시만 동작).
func NewCachedListingSource(src contracts.ListingSource, cache *redis.Cache) *CachedListingSource {
	return &CachedListingSource{
		src:   src,
		cache: cache,
		memo:  make(map[contracts.Market][]contracts.Listing),
	}
}

// ListSymbols returns the cached listing, fetching it on first use
func (s *CachedListingSource) ListSymbols(ctx context.Context, market contracts.Market) ([]contracts.Listing, error) {
	s.mu.Lock()
	if cached, ok := s.memo[market]; ok {
		s.mu.Unlock()
		return cloneListings(cached), nil
	}
	s.mu.Unlock()

	if s.cache != nil {
		var cached []contracts.Listing
		if hit, err := s.cache.Get(ctx, redis.ListingKey(string(market)), &cached); err == nil && hit && len(cached) > 0 {
			s.store(market, cached)
			return cloneListings(cached), nil
		}
	}

	listings, err := s.src.ListSymbols(ctx, market)
	if err != nil {
		return nil, err
	}

	s.store(market, listings)
	if s.cache != nil {
		// 캐시 쓰기 실패는 치명적이지 않다
		_ = s.cache.Set(ctx, redis.ListingKey(string(market)), listings, redis.TTLListing)
	}

	return cloneListings(listings), nil
}

func (s *CachedListingSource) store(market contracts.Market, listings []contracts.Listing) {
	s.mu.Lock()
	s.memo[market] = listings
	s.mu.Unlock()
}

// cloneListings guards the memo against caller-side mutation
// (RankByMarketCap가 순위 필드를 써넣는다)
func cloneListings(listings []contracts.Listing) []contracts.Listing {
	out := make([]contracts.Listing, len(listings))
	copy(out, listings)
	return out
}
