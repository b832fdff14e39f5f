package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iho/stockroyale/internal/domain"
)

// StockScore holds the indicators and the final score of one candidate.
type StockScore struct {
	StockID string
	Ticker  string

	MarketCap   float64
	PublicFloat float64
	Volatility  float64
	Fun         float64

	NormMarketCap   float64
	NormPublicFloat float64
	NormVolatility  float64

	Score float64
}

// Evaluator scores active stocks and picks the weakest one.
type Evaluator struct {
	stockRepo     StockRepository
	ownershipRepo OwnershipRepository
	priceRepo     PriceRepository
	random        RandomSource
	config        EngineConfig
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(
	stockRepo StockRepository,
	ownershipRepo OwnershipRepository,
	priceRepo PriceRepository,
	random RandomSource,
	config EngineConfig,
) *Evaluator {
	return &Evaluator{
		stockRepo:     stockRepo,
		ownershipRepo: ownershipRepo,
		priceRepo:     priceRepo,
		random:        random,
		config:        config,
	}
}

// FindWeakest returns the active stock with the lowest score.
func (e *Evaluator) FindWeakest(ctx context.Context) (*StockScore, error) {
	scores, err := e.Scores(ctx)
	if err != nil {
		return nil, err
	}

	return weakest(scores), nil
}

// Scores computes the score of every active stock, in ticker order.
func (e *Evaluator) Scores(ctx context.Context) ([]*StockScore, error) {
	stocks, err := e.stockRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if len(stocks) == 0 {
		return nil, domain.ErrNoStocksAvailable
	}

	since, err := e.stockRepo.LatestBankruptcy(ctx)
	if err != nil {
		return nil, err
	}

	scores := make([]*StockScore, len(stocks))
	g, gctx := errgroup.WithContext(ctx)

	for i, stock := range stocks {
		s := &StockScore{StockID: stock.ID, Ticker: stock.Ticker}
		scores[i] = s

		// Each goroutine writes only its own field of s.
		g.Go(func() error {
			mc, err := e.marketCap(gctx, stock.ID)
			s.MarketCap = mc
			return err
		})
		g.Go(func() error {
			s.PublicFloat = float64(stock.PublicFloat)
			return nil
		})
		g.Go(func() error {
			vol, err := e.volatility(gctx, stock.ID, since)
			s.Volatility = vol
			return err
		})
		g.Go(func() error {
			s.Fun = e.random.Float64()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	score(scores, e.config.Weights)

	return scores, nil
}

func (e *Evaluator) marketCap(ctx context.Context, stockID string) (float64, error) {
	shares, err := e.ownershipRepo.TotalShares(ctx, stockID)
	if err != nil {
		return 0, err
	}

	price := e.config.DefaultPrice
	current, err := e.priceRepo.GetCurrent(ctx, stockID)
	switch {
	case err == nil:
		price = current.Price
	case !errors.Is(err, domain.ErrPriceNotFound):
		return 0, err
	}

	return price.InexactFloat64() * float64(shares), nil
}

func (e *Evaluator) volatility(ctx context.Context, stockID string, since *time.Time) (float64, error) {
	history, err := e.priceRepo.ListHistorySince(ctx, stockID, since)
	if err != nil {
		return 0, err
	}

	values := make([]float64, len(history))
	for i, h := range history {
		values[i] = h.Price.InexactFloat64()
	}

	return populationStdDev(values), nil
}

// score fills the normalized indicators and the weighted score of each candidate.
// A market cap tie normalizes to 1 while float and volatility ties normalize to 0
// before being inverted.
func score(scores []*StockScore, w Weights) {
	caps := make([]float64, len(scores))
	floats := make([]float64, len(scores))
	vols := make([]float64, len(scores))
	for i, s := range scores {
		caps[i] = s.MarketCap
		floats[i] = s.PublicFloat
		vols[i] = s.Volatility
	}

	normCaps := normalize(caps, 1)
	normFloats := normalize(floats, 0)
	normVols := normalize(vols, 0)

	for i, s := range scores {
		s.NormMarketCap = normCaps[i]
		s.NormPublicFloat = 1 - normFloats[i]
		s.NormVolatility = 1 - normVols[i]
		s.Score = w.MarketCap*s.NormMarketCap +
			w.PublicFloat*s.NormPublicFloat +
			w.Volatility*s.NormVolatility +
			w.Fun*s.Fun
	}
}

// normalize applies min-max scaling. When every value is equal each result is tie.
func normalize(values []float64, tie float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	for i, v := range values {
		if hi == lo {
			out[i] = tie
			continue
		}
		out[i] = (v - lo) / (hi - lo)
	}

	return out
}

// weakest returns the lowest score; the first one wins a tie.
func weakest(scores []*StockScore) *StockScore {
	var lowest *StockScore
	for _, s := range scores {
		if lowest == nil || s.Score < lowest.Score {
			lowest = s
		}
	}
	return lowest
}

func populationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	return math.Sqrt(sq / float64(len(values)))
}
