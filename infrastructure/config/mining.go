package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"
)

// GetEnvFloat retrieves a float64 environment variable with optional
// default, following the same shape as GetEnvInt/GetEnvBool above.
func GetEnvFloat(key string, defaultValue float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// OrchestratorConfig holds the unified mining orchestrator's tunables.
type OrchestratorConfig struct {
	WorkerPoolSize int     // default: len(AllKinds)
	LoadThreshold  float64 // default 0.8

	// MineRunsPerSecond throttles how often mine_parallel may be admitted,
	// independent of the load-based admission check: the load probe catches
	// an already-overloaded host, this catches a caller (misconfigured cron
	// spec, manual trigger storm) dispatching runs faster than the miner
	// fleet can reasonably be re-run.
	MineRunsPerSecond float64 // default 1 (at most one run/second sustained)
	MineRunsBurst     int     // default 2
}

// orchestratorEnv mirrors OrchestratorConfig for github.com/joeshaw/envdecode,
// which decodes typed env-struct fields directly from tags instead of one
// GetEnv* call per field.
type orchestratorEnv struct {
	WorkerPoolSize    int     `env:"MINING_WORKER_POOL_SIZE,default=16"`
	LoadThreshold     float64 `env:"MINING_LOAD_THRESHOLD,default=0.8"`
	MineRunsPerSecond float64 `env:"MINING_RUNS_PER_SECOND,default=1"`
	MineRunsBurst     int     `env:"MINING_RUNS_BURST,default=2"`
}

// DefaultOrchestratorConfig returns the orchestrator defaults named in
// spec §4.1/§5.
func DefaultOrchestratorConfig() OrchestratorConfig {
	var e orchestratorEnv
	if err := envdecode.Decode(&e); err != nil {
		// A malformed env value (not a missing one — defaults cover that)
		// falls back to the named constants directly.
		return OrchestratorConfig{WorkerPoolSize: 16, LoadThreshold: 0.8, MineRunsPerSecond: 1, MineRunsBurst: 2}
	}
	return OrchestratorConfig{
		WorkerPoolSize:    e.WorkerPoolSize,
		LoadThreshold:     e.LoadThreshold,
		MineRunsPerSecond: e.MineRunsPerSecond,
		MineRunsBurst:     e.MineRunsBurst,
	}
}

// MetaMinerConfig holds the meta-miner's tunables.
type MetaMinerConfig struct {
	OptimizationWindowDays int // default 30
	MinSamples             int // default 10
	TopK                   int // default 5
}

// DefaultMetaMinerConfig returns the meta-miner defaults named in spec §4.2.
func DefaultMetaMinerConfig() MetaMinerConfig {
	return MetaMinerConfig{
		OptimizationWindowDays: GetEnvInt("META_MINER_OPTIMIZATION_WINDOW_DAYS", 30),
		MinSamples:             GetEnvInt("META_MINER_MIN_SAMPLES", 10),
		TopK:                   GetEnvInt("META_MINER_TOP_K", 5),
	}
}

// ArenaConfig holds the Spartan Arena validator's per-layer weights and
// pass-criteria, surfaced as named, calibratable constants per §9's design
// note ("All numeric constants in §4.3 ... must be surfaced as named
// constants of a Configuration type").
type ArenaConfig struct {
	Freq int // annualization factor, default 252

	Layer1Weight float64
	Layer2Weight float64
	Layer3Weight float64
	Layer4Weight float64

	Layer1MinPass float64
	Layer2MinPass float64
	Layer3MinPass float64
	Layer4MinPass float64

	OverallMinPass float64

	CertificationPlatinumScore float64
	CertificationGoldScore     float64
	CertificationSilverScore   float64
	SimulationMinCriteriaRatio float64 // 8-of-10 default
}

// DefaultArenaConfig returns the weights and thresholds from spec §4.3.
func DefaultArenaConfig() ArenaConfig {
	return ArenaConfig{
		Freq: GetEnvInt("ARENA_FREQ", 252),

		Layer1Weight: GetEnvFloat("ARENA_LAYER1_WEIGHT", 0.30),
		Layer2Weight: GetEnvFloat("ARENA_LAYER2_WEIGHT", 0.15),
		Layer3Weight: GetEnvFloat("ARENA_LAYER3_WEIGHT", 0.15),
		Layer4Weight: GetEnvFloat("ARENA_LAYER4_WEIGHT", 0.40),

		Layer1MinPass: GetEnvFloat("ARENA_LAYER1_MIN_PASS", 0.80),
		Layer2MinPass: GetEnvFloat("ARENA_LAYER2_MIN_PASS", 0.70),
		Layer3MinPass: GetEnvFloat("ARENA_LAYER3_MIN_PASS", 0.60),
		Layer4MinPass: GetEnvFloat("ARENA_LAYER4_MIN_PASS", 0.70),

		OverallMinPass: GetEnvFloat("ARENA_OVERALL_MIN_PASS", 0.75),

		CertificationPlatinumScore: GetEnvFloat("ARENA_CERT_PLATINUM_SCORE", 0.90),
		CertificationGoldScore:     GetEnvFloat("ARENA_CERT_GOLD_SCORE", 0.80),
		CertificationSilverScore:   GetEnvFloat("ARENA_CERT_SILVER_SCORE", 0.75),
		SimulationMinCriteriaRatio: GetEnvFloat("ARENA_SIMULATION_MIN_CRITERIA_RATIO", 0.8),
	}
}
