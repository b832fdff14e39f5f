package usecase

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
)

// Weights are the coefficients of the stock score.
type Weights struct {
	MarketCap   float64
	PublicFloat float64
	Volatility  float64
	Fun         float64
}

// EngineConfig is the immutable configuration of the trading engine.
type EngineConfig struct {
	Weights        Weights
	EmissionAmount int64
	DefaultPrice   decimal.Decimal
}

// DefaultEngineConfig returns the configuration used when nothing is overridden.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Weights: Weights{
			MarketCap:   1,
			PublicFloat: 1,
			Volatility:  1,
			Fun:         0.5,
		},
		EmissionAmount: 1000,
		DefaultPrice:   decimal.NewFromInt(1),
	}
}

// Validate checks the configuration.
func (c EngineConfig) Validate() error {
	for name, w := range map[string]float64{
		"market cap":   c.Weights.MarketCap,
		"public float": c.Weights.PublicFloat,
		"volatility":   c.Weights.Volatility,
		"fun":          c.Weights.Fun,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s weight must be finite", domain.ErrInvalidArgument, name)
		}
	}

	if c.EmissionAmount <= 0 {
		return fmt.Errorf("%w: emission amount must be positive", domain.ErrInvalidArgument)
	}

	if c.DefaultPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: default price must be positive", domain.ErrInvalidArgument)
	}

	return nil
}
