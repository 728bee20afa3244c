package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/berfenger/hassbridge/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartDiscoveryJob(t *testing.T) {
	var scans atomic.Int32
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(domain.DiscoveryScanRequest); ok {
			scans.Add(1)
			ctx.Respond(domain.DiscoveryScanResponse{Found: 1})
		}
	}))
	defer system.Root.Stop(pid)

	scheduler, err := StartDiscoveryJob(system.Root, pid, 100*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, scheduler)
	defer scheduler.Stop()

	assert.Eventually(t, func() bool {
		return scans.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)
}

func TestStartDiscoveryJobDisabled(t *testing.T) {
	system := actor.NewActorSystem()
	scheduler, err := StartDiscoveryJob(system.Root, nil, 0, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, scheduler)
}
