package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// logService wraps Service with debug logging of every call
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the dashboard Service
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) Status(ctx context.Context) (resp *StatusResponse, err error) {
	defer ls.log("Status", time.Now(), &err)
	return ls.svc.Status(ctx)
}

func (ls *logService) LatestRewards(ctx context.Context, limit int) (resp *RewardsResponse, err error) {
	defer ls.log("LatestRewards", time.Now(), &err, zap.Int("limit", limit))
	return ls.svc.LatestRewards(ctx, limit)
}

func (ls *logService) Reward(ctx context.Context, id int64) (resp *RewardResponse, err error) {
	defer ls.log("Reward", time.Now(), &err, zap.Int64("reward_id", id))
	return ls.svc.Reward(ctx, id)
}

func (ls *logService) log(method string, start time.Time, err *error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)))
	if *err != nil {
		ls.logger.Warn(method+" failed", append(fields, zap.Error(*err))...)
		return
	}
	ls.logger.Debug(method+" completed", fields...)
}
