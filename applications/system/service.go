package system

import "context"

// Service represents a lifecycle-managed component. cmd/factorarenad wraps
// the scheduler and the metrics HTTP listener in Service adapters so it
// can start and stop them deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// LifecycleService is the common contract for components that expose
// readiness in addition to start/stop.
type LifecycleService interface {
	Service
	Ready(ctx context.Context) error
}
