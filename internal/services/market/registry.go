// Package market holds the live tier-set registry. Tier sets are stored as
// immutable snapshots: readers get deep copies, writers replace whole sets
// under the lock, so planning never observes a half-applied swap.
package market

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hxuan190/tier-engine/internal/domain"
)

var ErrSetNotFound = errors.New("tier set not found")

type TierRegistry struct {
	mu   sync.RWMutex
	sets map[string]domain.TierSet
}

func NewTierRegistry() *TierRegistry {
	return &TierRegistry{
		sets: make(map[string]domain.TierSet),
	}
}

// Register validates and stores a tier set, replacing any set with the same
// id. Invalid tiers are rejected here, at construction, so the solver can
// assume well-formed fee rates and positive reserves downstream.
func (r *TierRegistry) Register(set domain.TierSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[set.ID] = set.Clone()
	return nil
}

func (r *TierRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sets[id]; !ok {
		return false
	}
	delete(r.sets, id)
	return true
}

// Snapshot returns a deep copy of the tier set; callers can plan against it
// freely without holding the registry lock.
func (r *TierRegistry) Snapshot(id string) (domain.TierSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[id]
	if !ok {
		return domain.TierSet{}, false
	}
	return set.Clone(), true
}

func (r *TierRegistry) List() []domain.TierSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TierSet, 0, len(r.sets))
	for _, set := range r.sets {
		out = append(out, set.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *TierRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sets)
}

// Apply runs fn against the current snapshot of a tier set and commits the
// returned replacement, all under the write lock. If fn fails nothing is
// committed. This is the serialization point for executed swaps.
func (r *TierRegistry) Apply(id string, fn func(domain.TierSet) (domain.TierSet, error)) (domain.TierSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[id]
	if !ok {
		return domain.TierSet{}, fmt.Errorf("%w: %q", ErrSetNotFound, id)
	}

	next, err := fn(set.Clone())
	if err != nil {
		return domain.TierSet{}, err
	}
	next.ID = id
	r.sets[id] = next
	return next.Clone(), nil
}
