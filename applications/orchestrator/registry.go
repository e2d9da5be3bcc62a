// Package orchestrator implements the unified mining orchestrator: a miner
// registry, a factor registry, and mine_parallel's fork-join dispatch with
// fault isolation and load-based admission control.
package orchestrator

import (
	"sync"

	"github.com/r3e-network/factor-arena/domain/mining"
	apperrors "github.com/r3e-network/factor-arena/infrastructure/errors"
)

// MinerRegistry holds the set of registered miners keyed by kind. Registration
// is duplicate-checked (one miner per kind); lookups are safe for concurrent
// use against in-flight mine_parallel calls.
type MinerRegistry struct {
	mu     sync.RWMutex
	miners map[mining.MinerKind]mining.Miner
}

// NewMinerRegistry returns an empty registry.
func NewMinerRegistry() *MinerRegistry {
	return &MinerRegistry{miners: make(map[mining.MinerKind]mining.Miner)}
}

// Register adds m under its own Kind(). Registering the same kind twice
// returns DuplicateMiner.
func (r *MinerRegistry) Register(m mining.Miner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.miners[m.Kind()]; exists {
		return apperrors.DuplicateMiner(string(m.Kind()))
	}
	r.miners[m.Kind()] = m
	return nil
}

// Get returns the miner registered under kind, if any.
func (r *MinerRegistry) Get(kind mining.MinerKind) (mining.Miner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.miners[kind]
	return m, ok
}

// Kinds returns the registered kinds in AllKinds order, filtered to those
// actually present.
func (r *MinerRegistry) Kinds() []mining.MinerKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mining.MinerKind, 0, len(r.miners))
	for _, k := range mining.AllKinds {
		if _, ok := r.miners[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Snapshot returns MinerMetadata for every registered miner, keyed by kind.
func (r *MinerRegistry) Snapshot() map[mining.MinerKind]mining.MinerMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[mining.MinerKind]mining.MinerMetadata, len(r.miners))
	for k, m := range r.miners {
		out[k] = m.Metadata()
	}
	return out
}

// FactorRegistry holds discovered factors under single-writer semantics:
// Register is serialized by mu so two concurrent miner completions can never
// interleave a write, per spec's single-writer invariant on the factor
// registry.
type FactorRegistry struct {
	mu      sync.RWMutex
	factors map[string]mining.FactorMetadata
	byKind  map[mining.MinerKind][]string
}

// NewFactorRegistry returns an empty factor registry.
func NewFactorRegistry() *FactorRegistry {
	return &FactorRegistry{
		factors: make(map[string]mining.FactorMetadata),
		byKind:  make(map[mining.MinerKind][]string),
	}
}

// Register adds f. Registering a factor ID already present returns
// DuplicateFactor.
func (r *FactorRegistry) Register(f mining.FactorMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factors[f.ID]; exists {
		return apperrors.DuplicateFactor(f.ID)
	}
	r.factors[f.ID] = f
	r.byKind[f.MinerKind] = append(r.byKind[f.MinerKind], f.ID)
	return nil
}

// Transition updates a registered factor's lifecycle status, rejecting any
// transition that violates LifecycleStatus.CanTransitionTo.
func (r *FactorRegistry) Transition(id string, next mining.LifecycleStatus) (mining.FactorMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.factors[id]
	if !ok {
		return mining.FactorMetadata{}, apperrors.New(apperrors.ErrCodeDuplicateFactor, "factor not found", 404).WithDetails("factor_id", id)
	}
	if !f.Status.CanTransitionTo(next) {
		return mining.FactorMetadata{}, apperrors.InvalidInput("status", "illegal lifecycle transition")
	}
	f.Status = next
	r.factors[id] = f
	return f, nil
}

// Get returns one factor by ID.
func (r *FactorRegistry) Get(id string) (mining.FactorMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factors[id]
	return f, ok
}

// All returns every registered factor, order unspecified.
func (r *FactorRegistry) All() []mining.FactorMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mining.FactorMetadata, 0, len(r.factors))
	for _, f := range r.factors {
		out = append(out, f)
	}
	return out
}

// ByKind returns every factor discovered by the given miner kind.
func (r *FactorRegistry) ByKind(kind mining.MinerKind) []mining.FactorMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byKind[kind]
	out := make([]mining.FactorMetadata, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.factors[id])
	}
	return out
}

// Count returns the total number of registered factors.
func (r *FactorRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factors)
}
