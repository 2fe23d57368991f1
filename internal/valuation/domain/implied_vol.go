package domain

import (
	"math"
	"time"
)

// 隐含波动率搜索域与数值预算。
const (
	ivSearchLow  = 1e-6
	ivSearchHigh = 5.0
	ivMaxIter    = 100
	ivTolerance  = 1e-8
)

// ImpliedVolSpec 隐含波动率反解请求。
type ImpliedVolSpec struct {
	MarketPrice  float64    `json:"market_price"`
	Spot         float64    `json:"spot"`
	Strike       float64    `json:"strike"`
	TimeToExpiry float64    `json:"time_to_expiry"`
	RiskFreeRate float64    `json:"risk_free_rate"`
	OptionType   OptionType `json:"option_type"`
}

// Validate 校验反解请求，含无套利价格边界。
func (s ImpliedVolSpec) Validate() error {
	if s.Spot <= 0 || s.Strike <= 0 || s.TimeToExpiry <= 0 {
		return InvalidParameter("spot, strike and time_to_expiry must be positive")
	}
	if math.IsNaN(s.MarketPrice) || math.IsInf(s.MarketPrice, 0) || s.MarketPrice <= 0 {
		return InvalidParameter("market_price must be positive and finite")
	}
	if s.OptionType != OptionCall && s.OptionType != OptionPut {
		return InvalidParameter("option_type must be call or put")
	}

	discountedStrike := s.Strike * math.Exp(-s.RiskFreeRate*s.TimeToExpiry)
	if s.OptionType == OptionCall {
		if s.MarketPrice < math.Max(s.Spot-discountedStrike, 0) || s.MarketPrice >= s.Spot {
			return InvalidParameter("market_price violates no-arbitrage bounds for a call")
		}
	} else {
		if s.MarketPrice < math.Max(discountedStrike-s.Spot, 0) || s.MarketPrice >= discountedStrike {
			return InvalidParameter("market_price violates no-arbitrage bounds for a put")
		}
	}
	return nil
}

// ImpliedVolatility 在 (1e-6, 5.0) 上反解 Black-Scholes 隐含波动率。
// 先用 Newton 迭代（vega 作导数），步长越界或 vega 退化时回退二分。
func ImpliedVolatility(spec ImpliedVolSpec) (*PricingResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	f := func(sigma float64) float64 {
		return bsPrice(spec.OptionType, spec.Spot, spec.Strike, spec.TimeToExpiry, spec.RiskFreeRate, sigma) - spec.MarketPrice
	}

	lo, hi := ivSearchLow, ivSearchHigh
	sigma := 0.2 // 市场量级的起点
	for i := 0; i < ivMaxIter; i++ {
		diff := f(sigma)
		if math.Abs(diff) < ivTolerance {
			return ivResult(spec, sigma, start), nil
		}

		// 维护二分括号。
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		// vega 未按 /100 折算，作为 f 对 sigma 的真实导数。
		d1 := bsD1(spec.Spot, spec.Strike, spec.TimeToExpiry, spec.RiskFreeRate, sigma)
		vega := spec.Spot * normPDF(d1) * math.Sqrt(spec.TimeToExpiry)

		next := sigma - diff/vega
		if vega < 1e-12 || next <= lo || next >= hi || math.IsNaN(next) {
			next = (lo + hi) / 2
		}

		if math.Abs(next-sigma) < ivTolerance {
			return ivResult(spec, next, start), nil
		}
		sigma = next
	}

	return nil, Convergence("implied volatility search did not converge within iteration budget")
}

func ivResult(spec ImpliedVolSpec, sigma float64, start time.Time) *PricingResult {
	return &PricingResult{
		Model:             ModelImpliedVol,
		Price:             bsPrice(spec.OptionType, spec.Spot, spec.Strike, spec.TimeToExpiry, spec.RiskFreeRate, sigma),
		ImpliedVolatility: sigma,
		ComputedAt:        time.Now().UTC(),
		ComputeSeconds:    time.Since(start).Seconds(),
	}
}
