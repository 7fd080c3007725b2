package commands

import (
	"fmt"

	"github.com/wonny/valuescan/backend/internal/external/naver"
	"github.com/wonny/valuescan/backend/internal/screen"
	"github.com/wonny/valuescan/backend/pkg/config"
	"github.com/wonny/valuescan/backend/pkg/httputil"
	"github.com/wonny/valuescan/backend/pkg/logger"
	"github.com/wonny/valuescan/backend/pkg/redis"
)

// app bundles the shared wiring every command needs
// ⭐ SSOT: 의존성 조립은 이 파일에서만
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	rdb   *redis.Client
	cache *redis.Cache
	naver *naver.Client
	orch  *screen.Orchestrator
}

// bootstrap loads config and wires the full dependency graph.
// Redis가 꺼져 있으면 로컬 토큰버킷으로 요청 속도를 제한한다.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	// 래퍼 재시도는 끈다. 가격 시계열만 오케스트레이터가 고정 지연으로
	// 재시도하고 나머지 호출은 실패 시 그대로 강등된다.
	htmlClient := httputil.New(cfg, log).DisableRetry()
	apiClient := httputil.New(cfg, log).DisableRetry()
	if rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb, "valuescan")
		htmlClient = htmlClient.WithRateLimiter(limiter, redis.NaverHTMLRateLimit)
		apiClient = apiClient.WithRateLimiter(limiter, redis.NaverAPIRateLimit)
	} else {
		htmlClient = htmlClient.WithLocalLimiter(10, 10)
		apiClient = apiClient.WithLocalLimiter(10, 10)
	}

	naverClient := naver.NewClient(cfg, htmlClient, apiClient, log)
	cache := redis.NewCache(rdb, "valuescan")

	listings := screen.NewCachedListingSource(naverClient, cache)
	orch := screen.NewOrchestrator(listings, naverClient, naverClient, naverClient, log)

	return &app{
		cfg:   cfg,
		log:   log,
		rdb:   rdb,
		cache: cache,
		naver: naverClient,
		orch:  orch,
	}, nil
}

// close releases shared resources
func (a *app) close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
}
