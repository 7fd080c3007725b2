package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/screen"
	"github.com/wonny/valuescan/backend/pkg/config"
	"github.com/wonny/valuescan/backend/pkg/logger"
	"github.com/wonny/valuescan/backend/pkg/redis"
)

// ScreeningJob runs the full screening pipeline on schedule
// ⭐ SSOT: 정기 스크리닝 스케줄은 이 Job에서만
type ScreeningJob struct {
	orch   *screen.Orchestrator
	cache  *redis.Cache
	config *config.Config
	logger *logger.Logger
}

// NewScreeningJob creates a new screening job
func NewScreeningJob(orch *screen.Orchestrator, cache *redis.Cache, cfg *config.Config, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		orch:   orch,
		cache:  cache,
		config: cfg,
		logger: log,
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "screening"
}

// Schedule returns the cron schedule (weekdays after market close)
func (j *ScreeningJob) Schedule() string {
	return j.config.Screen.ScheduleSpec
}

// Run executes one screening pass per domestic market
func (j *ScreeningJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled screening")

	for _, market := range []contracts.Market{contracts.MarketKOSPI, contracts.MarketKOSDAQ} {
		cfg := screen.FromAppConfig(j.config, market)

		records, err := j.orch.Run(ctx, cfg)
		if err != nil {
			return fmt.Errorf("screen %s: %w", market, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"market":  string(market),
			"records": len(records),
		}).Info("Market screening completed")

		if j.cache != nil {
			if err := j.cache.Set(ctx, redis.ResultsKey(string(market)), records, redis.TTLResults); err != nil {
				j.logger.WithError(err).Warn("Failed to cache screening results")
			}
		}
	}

	j.logger.Info("Scheduled screening completed successfully")
	return nil
}
