package config

import (
	"fmt"
	"strconv"

	"github.com/andrew-solarstorm/go-packages/common"
)

type SolverConfig struct {
	// ToleranceRelative is the bisection convergence tolerance relative to
	// the order size. Default: 1e-12 (double-precision convergence over any
	// realistic reserve magnitude range).
	ToleranceRelative float64

	// MaxIterations bounds the bisection loop. Default: 128
	MaxIterations int

	// MaxExpansions bounds the geometric search for the lower price bound.
	// Default: 64
	MaxExpansions int
}

func (c *SolverConfig) Key() string {
	return SOLVER_CONFIG_KEY
}

func (c *SolverConfig) Load() error {
	raw := common.GetEnvOrDefault("SOLVER_TOLERANCE_RELATIVE", "1e-12")
	tol, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid SOLVER_TOLERANCE_RELATIVE %q: %w", raw, err)
	}
	c.ToleranceRelative = tol
	c.MaxIterations = common.GetEnvOrDefaultInt("SOLVER_MAX_ITERATIONS", 128)
	c.MaxExpansions = common.GetEnvOrDefaultInt("SOLVER_MAX_EXPANSIONS", 64)
	return c.Validate()
}

func (c *SolverConfig) Validate() error {
	if c.ToleranceRelative <= 0 || c.ToleranceRelative >= 1 {
		return fmt.Errorf("SOLVER_TOLERANCE_RELATIVE %v outside (0, 1)", c.ToleranceRelative)
	}
	if c.MaxIterations <= 0 || c.MaxExpansions <= 0 {
		return fmt.Errorf("solver iteration bounds must be positive")
	}
	return nil
}
