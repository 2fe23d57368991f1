package domain

import (
	"math"
	"testing"
)

func TestBinomialConvergesToBlackScholes(t *testing.T) {
	spec := baseSpec()
	spec.Style = StyleEuropean
	spec.Steps = 1000

	bs, err := BlackScholesPrice(baseSpec())
	if err != nil {
		t.Fatalf("black-scholes failed: %v", err)
	}
	tree, err := BinomialTreePrice(spec)
	if err != nil {
		t.Fatalf("binomial failed: %v", err)
	}

	if diff := math.Abs(tree.Price - bs.Price); diff > 0.01 {
		t.Errorf("binomial %g diverges from black-scholes %g by %g", tree.Price, bs.Price, diff)
	}
}

func TestAmericanPutEarlyExercisePremium(t *testing.T) {
	european := InstrumentSpec{
		Spot: 100, Strike: 110, TimeToExpiry: 1, RiskFreeRate: 0.08, Volatility: 0.25,
		OptionType: OptionPut, Style: StyleEuropean, Steps: 500,
	}
	american := european
	american.Style = StyleAmerican

	eu, err := BinomialTreePrice(european)
	if err != nil {
		t.Fatalf("european failed: %v", err)
	}
	am, err := BinomialTreePrice(american)
	if err != nil {
		t.Fatalf("american failed: %v", err)
	}

	if am.Price < eu.Price {
		t.Errorf("american put %g cheaper than european %g", am.Price, eu.Price)
	}
	// 深度价内高利率下提前行权权利有正价值。
	if am.Price-eu.Price < 1e-4 {
		t.Errorf("expected early exercise premium, got %g", am.Price-eu.Price)
	}
	// 美式期权价值不低于立即行权价值。
	if intrinsic := american.Strike - american.Spot; am.Price < intrinsic {
		t.Errorf("american put %g below intrinsic %g", am.Price, intrinsic)
	}
}

func TestAmericanCallMatchesEuropeanWithoutDividends(t *testing.T) {
	spec := baseSpec()
	spec.Style = StyleAmerican
	spec.Steps = 500

	euSpec := spec
	euSpec.Style = StyleEuropean

	am, err := BinomialTreePrice(spec)
	if err != nil {
		t.Fatalf("american failed: %v", err)
	}
	eu, err := BinomialTreePrice(euSpec)
	if err != nil {
		t.Fatalf("european failed: %v", err)
	}
	if diff := math.Abs(am.Price - eu.Price); diff > 1e-9 {
		t.Errorf("american call should equal european without dividends, diff=%g", diff)
	}
}

func TestBinomialTreeValidation(t *testing.T) {
	spec := baseSpec()
	spec.Style = StyleEuropean
	spec.Steps = 0
	if _, err := BinomialTreePrice(spec); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for zero steps, got %v", err)
	}

	spec.Steps = MaxTreeSteps + 1
	if _, err := BinomialTreePrice(spec); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for oversized tree, got %v", err)
	}

	spec.Steps = 100
	spec.Style = "bermudan"
	if _, err := BinomialTreePrice(spec); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for unknown style, got %v", err)
	}
}
