package domain

import (
	"math"
	"testing"
)

func TestImpliedVolRoundTrip(t *testing.T) {
	for _, sigma := range []float64{0.1, 0.25, 0.6, 1.5} {
		spec := baseSpec()
		spec.Volatility = sigma
		priced, err := BlackScholesPrice(spec)
		if err != nil {
			t.Fatalf("pricing at sigma=%g failed: %v", sigma, err)
		}

		res, err := ImpliedVolatility(ImpliedVolSpec{
			MarketPrice:  priced.Price,
			Spot:         spec.Spot,
			Strike:       spec.Strike,
			TimeToExpiry: spec.TimeToExpiry,
			RiskFreeRate: spec.RiskFreeRate,
			OptionType:   spec.OptionType,
		})
		if err != nil {
			t.Fatalf("implied vol at sigma=%g failed: %v", sigma, err)
		}
		if math.Abs(res.ImpliedVolatility-sigma) > 1e-4 {
			t.Errorf("recovered sigma %g, want %g", res.ImpliedVolatility, sigma)
		}
	}
}

func TestImpliedVolPutRoundTrip(t *testing.T) {
	spec := baseSpec()
	spec.OptionType = OptionPut
	spec.Volatility = 0.3
	priced, err := BlackScholesPrice(spec)
	if err != nil {
		t.Fatalf("put pricing failed: %v", err)
	}

	res, err := ImpliedVolatility(ImpliedVolSpec{
		MarketPrice:  priced.Price,
		Spot:         spec.Spot,
		Strike:       spec.Strike,
		TimeToExpiry: spec.TimeToExpiry,
		RiskFreeRate: spec.RiskFreeRate,
		OptionType:   OptionPut,
	})
	if err != nil {
		t.Fatalf("implied vol failed: %v", err)
	}
	if math.Abs(res.ImpliedVolatility-0.3) > 1e-4 {
		t.Errorf("recovered sigma %g, want 0.3", res.ImpliedVolatility)
	}
}

func TestImpliedVolNoArbitrageBounds(t *testing.T) {
	base := ImpliedVolSpec{
		Spot: 100, Strike: 105, TimeToExpiry: 0.25, RiskFreeRate: 0.05, OptionType: OptionCall,
	}

	// call 价格不能达到现价。
	spec := base
	spec.MarketPrice = 100
	if _, err := ImpliedVolatility(spec); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for price >= spot, got %v", err)
	}

	// call 价格不能低于内在价值下界。
	spec = base
	spec.Spot = 150
	spec.MarketPrice = 10 // 下界约 46.3
	if _, err := ImpliedVolatility(spec); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for price below intrinsic bound, got %v", err)
	}

	spec = base
	spec.MarketPrice = -1
	if _, err := ImpliedVolatility(spec); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for negative price, got %v", err)
	}
}
