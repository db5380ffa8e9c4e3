// Package engine exposes the swap engine as a DI-managed service: tier-set
// registry, split solver, and executor behind Quote/Swap operations, with
// BoltDB persistence of the current registry state.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/tier-engine/internal/adapters/persistence"
	"github.com/hxuan190/tier-engine/internal/common"
	"github.com/hxuan190/tier-engine/internal/config"
	"github.com/hxuan190/tier-engine/internal/domain"
	"github.com/hxuan190/tier-engine/internal/metrics"
	"github.com/hxuan190/tier-engine/internal/services/executor"
	"github.com/hxuan190/tier-engine/internal/services/market"
	"github.com/hxuan190/tier-engine/internal/services/solver"
)

const ENGINE_SERVICE = "engine-service"

var ErrPoolNotFound = errors.New("pool not found")

// QuoteResult is a read-only plan: nothing in the registry changes until the
// caller executes it through Swap.
type QuoteResult struct {
	PoolID         string
	Order          domain.Order
	Allocation     domain.Allocation
	ExpectedOut    float64
	EffectivePrice float64
	EqualizedPrice float64
	CombinedPrice  float64
}

type Service struct {
	container.BaseDIInstance
	logger zerolog.Logger

	registry *market.TierRegistry
	solver   *solver.SplitSolver
	executor *executor.SwapExecutor
	storage  *persistence.Storage

	generalConf *config.GeneralConfig
	storageConf *config.StorageConfig
}

func (svc *Service) ID() string {
	return ENGINE_SERVICE
}

// NewService wires an engine without the DI container, for tests and
// embedded use. Persistence stays disabled.
func NewService(registry *market.TierRegistry, cfg solver.Config) *Service {
	return &Service{
		logger:   log.With().Str("service", ENGINE_SERVICE).Logger(),
		registry: registry,
		solver:   solver.New(cfg),
		executor: executor.New(),
	}
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = log.With().Str("service", ENGINE_SERVICE).Logger()

	svc.generalConf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	svc.storageConf = c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig)
	solverConf := c.GetConfig(config.SOLVER_CONFIG_KEY).(*config.SolverConfig)

	common.SetupLogger(svc.generalConf.Env, svc.generalConf.LogLevel)

	svc.registry = market.NewTierRegistry()
	svc.solver = solver.New(solver.Config{
		ToleranceRelative: solverConf.ToleranceRelative,
		MaxIterations:     solverConf.MaxIterations,
		MaxExpansions:     solverConf.MaxExpansions,
	})
	svc.executor = executor.New()
	return nil
}

func (svc *Service) Start() error {
	if !svc.storageConf.PersistenceEnabled {
		svc.logger.Info().Msg("persistence disabled, starting with empty registry")
		return nil
	}

	storage, err := persistence.NewStorage(svc.storageConf.DBPath)
	if err != nil {
		return err
	}
	svc.storage = storage

	sets, err := storage.LoadAllTierSets()
	if err != nil {
		return err
	}
	for _, set := range sets {
		if err := svc.registry.Register(set); err != nil {
			svc.logger.Error().Str("pool", set.ID).Err(err).Msg("skipping invalid persisted tier set")
		}
	}
	metrics.TierSetCount.Set(float64(svc.registry.Count()))
	svc.logger.Info().Int("pools", svc.registry.Count()).Msg("registry loaded")
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage == nil {
		return nil
	}
	if err := svc.storage.SaveTierSetBatch(svc.registry.List()); err != nil {
		svc.logger.Error().Err(err).Msg("failed to flush registry on shutdown")
	}
	return svc.storage.Close()
}

// Quote solves the split against the current snapshot without mutating it.
func (svc *Service) Quote(poolID string, order domain.Order) (*QuoteResult, error) {
	start := time.Now()

	set, ok := svc.registry.Snapshot(poolID)
	if !ok {
		metrics.QuoteRequests.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, poolID)
	}

	plan, err := svc.solver.Solve(order, set.Tiers)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.QuoteRequests.WithLabelValues("ok").Inc()
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	metrics.SolverIterations.Observe(float64(plan.Iterations))

	result := &QuoteResult{
		PoolID:         poolID,
		Order:          order,
		Allocation:     plan.Allocation,
		ExpectedOut:    plan.ExpectedOut,
		EqualizedPrice: plan.TargetPrice,
		CombinedPrice:  set.CombinedMarginalPrice(order.Direction),
	}
	if order.AmountIn > 0 {
		result.EffectivePrice = plan.ExpectedOut / order.AmountIn
	}
	return result, nil
}

// Swap solves and executes against the live tier set. Solve and apply run
// under the registry's write lock so concurrent swaps serialize; the commit
// happens only after every tier application succeeded.
func (svc *Service) Swap(poolID string, order domain.Order) (*domain.SwapResult, error) {
	start := time.Now()
	if err := order.Validate(); err != nil {
		metrics.SwapRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var result *domain.SwapResult
	_, err := svc.registry.Apply(poolID, func(set domain.TierSet) (domain.TierSet, error) {
		plan, err := svc.solver.Solve(order, set.Tiers)
		if err != nil {
			return domain.TierSet{}, err
		}
		metrics.SolverIterations.Observe(float64(plan.Iterations))

		result, err = svc.executor.Execute(order, set.Tiers, plan.Allocation)
		if err != nil {
			return domain.TierSet{}, err
		}
		return domain.TierSet{ID: set.ID, Tiers: result.PostTiers}, nil
	})
	if err != nil {
		if errors.Is(err, market.ErrSetNotFound) {
			metrics.SwapRequests.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, poolID)
		}
		metrics.SwapRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.SwapRequests.WithLabelValues("ok").Inc()
	metrics.SwapDuration.Observe(time.Since(start).Seconds())
	metrics.TierSetUpdates.Inc()

	svc.persist(poolID)

	svc.logger.Debug().
		Str("pool", poolID).
		Float64("amount_in", order.AmountIn).
		Float64("amount_out", result.TotalAmountOut).
		Msg("swap executed")
	return result, nil
}

// RegisterPool validates and stores a tier set supplied by the caller.
func (svc *Service) RegisterPool(set domain.TierSet) error {
	if err := svc.registry.Register(set); err != nil {
		return err
	}
	metrics.TierSetCount.Set(float64(svc.registry.Count()))
	metrics.TierSetUpdates.Inc()
	svc.persist(set.ID)
	svc.logger.Info().Str("pool", set.ID).Int("tiers", len(set.Tiers)).Msg("pool registered")
	return nil
}

func (svc *Service) RemovePool(id string) error {
	if !svc.registry.Remove(id) {
		return fmt.Errorf("%w: %q", ErrPoolNotFound, id)
	}
	metrics.TierSetCount.Set(float64(svc.registry.Count()))
	if svc.storage != nil {
		if err := svc.storage.DeleteTierSet(id); err != nil {
			svc.logger.Error().Str("pool", id).Err(err).Msg("failed to delete persisted tier set")
		}
	}
	return nil
}

func (svc *Service) GetPool(id string) (domain.TierSet, error) {
	set, ok := svc.registry.Snapshot(id)
	if !ok {
		return domain.TierSet{}, fmt.Errorf("%w: %q", ErrPoolNotFound, id)
	}
	return set, nil
}

func (svc *Service) ListPools() []domain.TierSet {
	return svc.registry.List()
}

func (svc *Service) persist(poolID string) {
	if svc.storage == nil {
		return
	}
	set, ok := svc.registry.Snapshot(poolID)
	if !ok {
		return
	}
	if err := svc.storage.SaveTierSet(set); err != nil {
		svc.logger.Error().Str("pool", poolID).Err(err).Msg("failed to persist tier set")
	}
}
