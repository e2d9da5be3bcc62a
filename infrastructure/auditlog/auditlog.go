// Package auditlog provides an append-only audit trail for factor and
// miner registry mutations, distinct from the operational logrus logger in
// infrastructure/logging: every entry is a structured, timestamped record
// of a registry decision (factor registered, miner registered, lifecycle
// transition), kept independent of log-level filtering so the trail is
// never silently dropped. Backed by go.uber.org/zap, the teacher's second
// structured logging dependency alongside logrus.
package auditlog

import (
	"time"

	"go.uber.org/zap"
)

// Action identifies the kind of registry event being recorded.
type Action string

const (
	ActionFactorRegistered   Action = "factor_registered"
	ActionFactorTransitioned Action = "factor_transitioned"
	ActionMinerRegistered    Action = "miner_registered"
	ActionMinerDisabled      Action = "miner_disabled"
)

// Logger wraps a zap.Logger configured for append-only structured audit
// output (JSON, one entry per line, never sampled).
type Logger struct {
	z *zap.Logger
}

// New builds an audit logger writing JSON lines to standard out.
func New() (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil // audit entries are never dropped for rate limiting
	cfg.OutputPaths = []string{"stdout"}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewNop returns an audit logger that discards all entries, for tests and
// CLI dry-runs.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Record appends one audit entry.
func (l *Logger) Record(action Action, subject string, fields map[string]interface{}) {
	zfields := make([]zap.Field, 0, len(fields)+2)
	zfields = append(zfields, zap.String("action", string(action)), zap.String("subject", subject), zap.Time("ts", time.Now()))
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	l.z.Info("audit", zfields...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
