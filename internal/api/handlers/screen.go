package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/screen"
	"github.com/wonny/valuescan/backend/internal/valuation"
	"github.com/wonny/valuescan/backend/pkg/config"
	"github.com/wonny/valuescan/backend/pkg/logger"
	"github.com/wonny/valuescan/backend/pkg/redis"
)

// ScreenHandler exposes screening runs and derived lookups
// ⭐ SSOT: 스크리닝 API 핸들러는 여기서만
type ScreenHandler struct {
	orch   *screen.Orchestrator
	prices contracts.PriceSource
	rates  contracts.BaseRateSource
	cache  *redis.Cache
	cfg    *config.Config
	logger *logger.Logger

	mu      sync.RWMutex
	running bool
	results []contracts.AnalysisRecord
	ranAt   time.Time
}

// NewScreenHandler creates a screen handler
func NewScreenHandler(
	orch *screen.Orchestrator,
	prices contracts.PriceSource,
	rates contracts.BaseRateSource,
	cache *redis.Cache,
	cfg *config.Config,
	log *logger.Logger,
) *ScreenHandler {
	return &ScreenHandler{
		orch:   orch,
		prices: prices,
		rates:  rates,
		cache:  cache,
		cfg:    cfg,
		logger: log.WithField("module", "screen_handler"),
	}
}

// ScreenRequest selects the universe and rule set for one run
type ScreenRequest struct {
	Market  string       `json:"market"`
	TopN    int          `json:"top_n"`
	Workers int          `json:"workers"`
	Variant string       `json:"variant"`
	SortBy  string       `json:"sort_by"`
	Rules   screen.Rules `json:"rules"`
}

// StartScreen kicks off a screening run in the background.
// 실행 중 중복 요청은 409. 결과는 완료 후 GetResults로 조회.
func (h *ScreenHandler) StartScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		writeError(w, http.StatusConflict, "screening run already in progress")
		return
	}
	h.running = true
	h.mu.Unlock()

	cfg := h.runConfig(req)

	go func() {
		// 실행은 완료까지 드레인된다 (중도 취소 없음)
		ctx := context.Background()

		// 새 실행이 시작되면 이전 캐시 결과는 무효
		if h.cache != nil {
			if err := h.cache.Delete(ctx, redis.ResultsKey(string(cfg.Market))); err != nil {
				h.logger.WithError(err).Warn("Failed to invalidate cached results")
			}
		}

		records, err := h.orch.Run(ctx, cfg)

		h.mu.Lock()
		h.running = false
		if err == nil {
			h.results = records
			h.ranAt = time.Now()
		}
		h.mu.Unlock()

		if err != nil {
			h.logger.WithError(err).Error("Screening run failed")
			return
		}

		if h.cache != nil {
			if err := h.cache.Set(ctx, redis.ResultsKey(string(cfg.Market)), records, redis.TTLResults); err != nil {
				h.logger.WithError(err).Warn("Failed to cache results")
			}
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "started",
		"market": string(cfg.Market),
		"top_n":  cfg.TopN,
	})
}

// runConfig merges the request over the env defaults
func (h *ScreenHandler) runConfig(req ScreenRequest) screen.Config {
	cfg := screen.FromAppConfig(h.cfg, contracts.ParseMarket(req.Market))
	cfg.Rules = req.Rules

	if req.TopN > 0 {
		cfg.TopN = req.TopN
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}
	if req.Variant != "" {
		cfg.Variant = valuation.ParseVariant(req.Variant)
	}
	if req.SortBy != "" {
		cfg.SortBy = screen.ParseSortKey(req.SortBy)
	}
	return cfg
}

// GetResults returns the last completed run, optionally re-sorted
func (h *ScreenHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	running := h.running
	records := make([]contracts.AnalysisRecord, len(h.results))
	copy(records, h.results)
	ranAt := h.ranAt
	h.mu.RUnlock()

	if sortBy := r.URL.Query().Get("sort_by"); sortBy != "" {
		screen.SortRecords(records, screen.ParseSortKey(sortBy))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"running": running,
		"ran_at":  ranAt,
		"count":   len(records),
		"records": records,
	})
}

// GetSentiment computes the weekly fear/greed score for one symbol
func (h *ScreenHandler) GetSentiment(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing symbol code")
		return
	}

	to := time.Now()
	from := to.AddDate(-2, 0, 0)

	bars, err := h.prices.DailySeries(r.Context(), code, from, to)
	if err != nil {
		writeError(w, http.StatusBadGateway, "price series unavailable")
		return
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":       code,
		"fear_greed": valuation.FearGreedWeekly(bars),
		"bars":       len(bars),
	})
}

// GetBaseRate returns the current BOK base rate (with fallback).
// 짧은 TTL로 캐시해서 매 요청마다 스크래핑하지 않는다.
func (h *ScreenHandler) GetBaseRate(w http.ResponseWriter, r *http.Request) {
	var rate float64
	cached := false

	if h.cache != nil {
		if ok, err := h.cache.Get(r.Context(), redis.BaseRateKey(), &rate); err == nil && ok {
			cached = true
		}
	}

	if !cached {
		rate = h.rates.BaseRate(r.Context())
		if h.cache != nil {
			if err := h.cache.Set(r.Context(), redis.BaseRateKey(), rate, redis.TTLRate); err != nil {
				h.logger.WithError(err).Warn("Failed to cache base rate")
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"base_rate": rate,
	})
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
