package domain

import "testing"

func TestOptionChainDefaultsAndShape(t *testing.T) {
	chain, err := OptionChain(100, 0.25, 0.05, 0.2, 0, 0, 0)
	if err != nil {
		t.Fatalf("option chain failed: %v", err)
	}
	if len(chain) == 0 {
		t.Fatal("expected non-empty chain")
	}
	if chain[0].Strike != 80 || chain[len(chain)-1].Strike > 120+1e-9 {
		t.Errorf("default strike grid [%g, %g] should span 80..120",
			chain[0].Strike, chain[len(chain)-1].Strike)
	}
	for i, e := range chain {
		if i > 0 && e.CallPrice >= chain[i-1].CallPrice {
			t.Errorf("call price should fall as strike rises at %g", e.Strike)
		}
		if e.Gamma <= 0 || e.Vega <= 0 {
			t.Errorf("gamma/vega should be positive at strike %g", e.Strike)
		}
	}
}

func TestVolatilitySurfaceSmile(t *testing.T) {
	surface, err := VolatilitySurface(100, 0.05, 0.2, 0.4, 2.0)
	if err != nil {
		t.Fatalf("surface failed: %v", err)
	}
	if len(surface) != 80 {
		t.Fatalf("expected 10x8 grid, got %d points", len(surface))
	}
	for _, p := range surface {
		if p.Volatility < 0.2 {
			t.Errorf("smile vol %g at strike %g should not dip below base", p.Volatility, p.Strike)
		}
	}
}

func TestOptionChainRejectsBadInput(t *testing.T) {
	if _, err := OptionChain(0, 0.25, 0.05, 0.2, 0, 0, 0); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for zero spot, got %v", err)
	}
	if _, err := OptionChain(100, 0.25, 0.05, 0.2, 120, 80, 5); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for inverted strike range, got %v", err)
	}
}
