package domain

import (
	"math"
	"testing"
)

func baseSpec() InstrumentSpec {
	return InstrumentSpec{
		Spot:         100,
		Strike:       105,
		TimeToExpiry: 0.25,
		RiskFreeRate: 0.05,
		Volatility:   0.20,
		OptionType:   OptionCall,
	}
}

func TestBlackScholesPutCallParity(t *testing.T) {
	call := baseSpec()
	put := baseSpec()
	put.OptionType = OptionPut

	callRes, err := BlackScholesPrice(call)
	if err != nil {
		t.Fatalf("call pricing failed: %v", err)
	}
	putRes, err := BlackScholesPrice(put)
	if err != nil {
		t.Fatalf("put pricing failed: %v", err)
	}

	forward := call.Spot - call.Strike*math.Exp(-call.RiskFreeRate*call.TimeToExpiry)
	if diff := math.Abs(callRes.Price - putRes.Price - forward); diff > 1e-9 {
		t.Errorf("put-call parity violated: diff=%g", diff)
	}
}

func TestBlackScholesGreeksRanges(t *testing.T) {
	res, err := BlackScholesPrice(baseSpec())
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	if res.Greeks == nil {
		t.Fatal("expected greeks on black-scholes result")
	}
	g := res.Greeks
	if g.Delta <= 0 || g.Delta >= 1 {
		t.Errorf("call delta %g out of (0,1)", g.Delta)
	}
	if g.Gamma <= 0 {
		t.Errorf("gamma %g should be positive", g.Gamma)
	}
	if g.Vega <= 0 {
		t.Errorf("vega %g should be positive", g.Vega)
	}
	if g.Theta >= 0 {
		t.Errorf("call theta %g should be negative", g.Theta)
	}

	put := baseSpec()
	put.OptionType = OptionPut
	putRes, err := BlackScholesPrice(put)
	if err != nil {
		t.Fatalf("put pricing failed: %v", err)
	}
	if d := putRes.Greeks.Delta; d <= -1 || d >= 0 {
		t.Errorf("put delta %g out of (-1,0)", d)
	}
}

func TestBlackScholesKnownValue(t *testing.T) {
	res, err := BlackScholesPrice(baseSpec())
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	// S=100 K=105 T=0.25 r=5% sigma=20% 的欧式 call 在 2.5 附近。
	if res.Price < 2.2 || res.Price > 2.8 {
		t.Errorf("price %g outside expected band", res.Price)
	}
}

func TestBlackScholesRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*InstrumentSpec)
	}{
		{"zero volatility", func(s *InstrumentSpec) { s.Volatility = 0 }},
		{"negative spot", func(s *InstrumentSpec) { s.Spot = -1 }},
		{"zero expiry", func(s *InstrumentSpec) { s.TimeToExpiry = 0 }},
		{"nan strike", func(s *InstrumentSpec) { s.Strike = math.NaN() }},
		{"bad option type", func(s *InstrumentSpec) { s.OptionType = "straddle" }},
	}
	for _, tc := range cases {
		spec := baseSpec()
		tc.mutate(&spec)
		if _, err := BlackScholesPrice(spec); !IsInvalidParameter(err) {
			t.Errorf("%s: expected invalid parameter error, got %v", tc.name, err)
		}
	}
}
