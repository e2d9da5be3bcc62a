package errors

import "net/http"

// Mining orchestrator and Arena validator error codes (8xxx/9xxx),
// following the existing category-prefix + numeric-suffix convention.
const (
	// Mining errors (8xxx)
	ErrCodeDuplicateFactor           ErrorCode = "MINING_8001"
	ErrCodeDuplicateMiner            ErrorCode = "MINING_8002"
	ErrCodeSystemOverloaded          ErrorCode = "MINING_8003"
	ErrCodeMinerFailure              ErrorCode = "MINING_8004"
	ErrCodeOperatorFailure           ErrorCode = "MINING_8005"
	ErrCodeDataQualityBelowThreshold ErrorCode = "MINING_8006"
	ErrCodeOrchestratorShutdown      ErrorCode = "MINING_8007"

	// Arena validation errors (9xxx)
	ErrCodeArenaTimeout    ErrorCode = "ARENA_9001"
	ErrCodeArenaCancelled  ErrorCode = "ARENA_9002"
	ErrCodeLayerEvaluation ErrorCode = "ARENA_9003"
)

// DuplicateFactor reports a factor id collision on registration.
func DuplicateFactor(id string) *ServiceError {
	return New(ErrCodeDuplicateFactor, "Factor id already registered", http.StatusConflict).
		WithDetails("factor_id", id)
}

// DuplicateMiner reports a miner-kind collision on registration.
func DuplicateMiner(kind string) *ServiceError {
	return New(ErrCodeDuplicateMiner, "Miner kind already registered", http.StatusConflict).
		WithDetails("miner_kind", kind)
}

// SystemOverloaded reports the orchestrator's admission check rejecting a
// mine_parallel call because CPU or memory load exceeds the threshold.
func SystemOverloaded(cpu, mem, threshold float64) *ServiceError {
	return New(ErrCodeSystemOverloaded, "System load exceeds admission threshold", http.StatusServiceUnavailable).
		WithDetails("cpu", cpu).
		WithDetails("memory", mem).
		WithDetails("threshold", threshold)
}

// MinerFailure wraps a miner task's error into the MiningResult.Error text.
func MinerFailure(kind string, err error) *ServiceError {
	return Wrap(ErrCodeMinerFailure, "Miner task failed", http.StatusOK, err).
		WithDetails("miner_kind", kind)
}

// OperatorFailure wraps a single operator's error; always locally
// recovered by the calling miner (operator skipped, miner continues).
func OperatorFailure(kind, operator string, err error) *ServiceError {
	return Wrap(ErrCodeOperatorFailure, "Operator failed", http.StatusOK, err).
		WithDetails("miner_kind", kind).
		WithDetails("operator", operator)
}

// DataQualityBelowThreshold reports an alt-data source whose reliability
// record demanded a fallback.
func DataQualityBelowThreshold(source string) *ServiceError {
	return New(ErrCodeDataQualityBelowThreshold, "Alternative data source below reliability threshold", http.StatusOK).
		WithDetails("source", source)
}

// OrchestratorShutdown reports use of an orchestrator after shutdown().
func OrchestratorShutdown() *ServiceError {
	return New(ErrCodeOrchestratorShutdown, "Orchestrator has been shut down", http.StatusGone)
}

// ArenaTimeout reports an Arena layer exceeding its total timeout budget.
func ArenaTimeout(layer string) *ServiceError {
	return New(ErrCodeArenaTimeout, "Arena layer exceeded its timeout budget", http.StatusGatewayTimeout).
		WithDetails("layer", layer)
}

// ArenaCancelled reports cancellation of an in-flight Arena evaluation.
func ArenaCancelled(layer string) *ServiceError {
	return New(ErrCodeArenaCancelled, "Arena evaluation cancelled", http.StatusOK).
		WithDetails("layer", layer)
}
