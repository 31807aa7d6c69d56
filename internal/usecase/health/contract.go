package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ScorerChecker checks scoring provider availability.
type ScorerChecker interface {
	HealthCheck(ctx context.Context) error
}
