package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/hassbridge/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const DISCOVERY_JOB_KEY = "songpal-discovery"

// StartDiscoveryJob asks target for an SSDP scan every interval. A zero
// interval disables periodic scans and returns a nil scheduler.
func StartDiscoveryJob(rootContext *actor.RootContext, target *actor.PID, interval time.Duration,
	logger *zap.Logger) (quartz.Scheduler, error) {
	if interval <= 0 {
		return nil, nil
	}

	scanJob := job.NewFunctionJob(func(_ context.Context) (int, error) {
		res, err := rootContext.RequestFuture(target, domain.DiscoveryScanRequest{}, interval).Result()
		if err != nil {
			return 0, err
		}
		response, ok := res.(domain.DiscoveryScanResponse)
		if !ok {
			return 0, fmt.Errorf("unexpected discovery response %T", res)
		}
		if response.HasResponseError() {
			logger.Warn("discovery scan failed", zap.Error(response.GetResponseError()))
			return 0, response.GetResponseError()
		}
		logger.Debug("discovery scan done", zap.Int("found", response.Found))
		return response.Found, nil
	})

	scheduler := quartz.NewStdScheduler()
	scheduler.Start(context.Background())
	err := scheduler.ScheduleJob(quartz.NewJobDetail(scanJob, quartz.NewJobKey(DISCOVERY_JOB_KEY)),
		quartz.NewSimpleTrigger(interval))
	if err != nil {
		scheduler.Stop()
		return nil, err
	}
	return scheduler, nil
}
