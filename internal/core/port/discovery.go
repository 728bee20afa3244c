package port

import (
	"context"
	"time"

	"github.com/berfenger/hassbridge/internal/core/flow"
)

type DiscoveryScanner interface {
	Scan(ctx context.Context, wait time.Duration) ([]flow.SsdpServiceInfo, error)
}
