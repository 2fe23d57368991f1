package domain

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func portfolioSpec() PortfolioSpec {
	return PortfolioSpec{
		Weights:         []float64{0.6, 0.4},
		ExpectedReturns: []float64{0.08, 0.05},
		Covariance: [][]float64{
			{0.04, 0.01},
			{0.01, 0.02},
		},
		InitialValue: decimal.NewFromInt(100000),
		Simulations:  5000,
	}
}

func TestSimulatePortfolioStats(t *testing.T) {
	res, err := SimulatePortfolio(context.Background(), portfolioSpec(), nil)
	if err != nil {
		t.Fatalf("portfolio simulation failed: %v", err)
	}
	if res.Portfolio == nil {
		t.Fatal("expected portfolio stats")
	}
	p := res.Portfolio

	wantReturn := 0.6*0.08 + 0.4*0.05
	if math.Abs(p.ExpectedReturn-wantReturn) > 1e-12 {
		t.Errorf("expected return %g, want %g", p.ExpectedReturn, wantReturn)
	}
	if p.Volatility <= 0 {
		t.Errorf("volatility %g should be positive", p.Volatility)
	}
	if math.Abs(p.SharpeRatio-p.ExpectedReturn/p.Volatility) > 1e-12 {
		t.Errorf("sharpe %g inconsistent with return/volatility", p.SharpeRatio)
	}

	// 更高置信度的 VaR 分位更靠尾部。
	if p.VaR99.GreaterThan(p.VaR95) {
		t.Errorf("VaR99 %s should not exceed VaR95 %s", p.VaR99, p.VaR95)
	}
	// CVaR 是尾部均值，不高于对应 VaR。
	if p.CVaR95.GreaterThan(p.VaR95) {
		t.Errorf("CVaR95 %s should not exceed VaR95 %s", p.CVaR95, p.VaR95)
	}
	if p.CVaR99.GreaterThan(p.VaR99) {
		t.Errorf("CVaR99 %s should not exceed VaR99 %s", p.CVaR99, p.VaR99)
	}
	if len(p.Percentiles) == 0 {
		t.Error("expected percentile map")
	}
}

func TestSimulatePortfolioReproducible(t *testing.T) {
	first, err := SimulatePortfolio(context.Background(), portfolioSpec(), nil)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := SimulatePortfolio(context.Background(), portfolioSpec(), nil)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if first.Price != second.Price {
		t.Errorf("same seed should reproduce identical mean final value: %g vs %g",
			first.Price, second.Price)
	}
}

func TestSimulatePortfolioSingularCovariance(t *testing.T) {
	// 两个完全相关的资产：协方差奇异但半正定，属于合法输入。
	spec := portfolioSpec()
	spec.Covariance = [][]float64{
		{0.04, 0.04},
		{0.04, 0.04},
	}
	res, err := SimulatePortfolio(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("perfectly correlated assets should simulate: %v", err)
	}
	// w'Σw = (0.6+0.4)^2 * 0.04。
	if math.Abs(res.Portfolio.Volatility-0.2) > 1e-12 {
		t.Errorf("volatility %g, want 0.2", res.Portfolio.Volatility)
	}
	if res.Portfolio.StdFinalValue.IsZero() {
		t.Error("correlated portfolio should still show dispersion in final values")
	}
}

func TestSimulatePortfolioRejectsBadCovariance(t *testing.T) {
	// 非对称。
	spec := portfolioSpec()
	spec.Covariance[0][1] = 0.02
	if _, err := SimulatePortfolio(context.Background(), spec, nil); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for asymmetric covariance, got %v", err)
	}

	// 对称但非半正定。
	spec = portfolioSpec()
	spec.Covariance = [][]float64{
		{0.01, 0.05},
		{0.05, 0.01},
	}
	if _, err := SimulatePortfolio(context.Background(), spec, nil); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for non-psd covariance, got %v", err)
	}

	// 零主元下方仍有相关性，矩阵存在负特征值。
	spec = portfolioSpec()
	spec.Covariance = [][]float64{
		{0, 0.01},
		{0.01, 0.04},
	}
	if _, err := SimulatePortfolio(context.Background(), spec, nil); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for indefinite covariance, got %v", err)
	}

	// 零方差组合的夏普比无定义。
	spec = portfolioSpec()
	spec.Covariance = [][]float64{
		{0, 0},
		{0, 0},
	}
	if _, err := SimulatePortfolio(context.Background(), spec, nil); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for zero variance, got %v", err)
	}
}

func TestSimulatePortfolioDimensionChecks(t *testing.T) {
	spec := portfolioSpec()
	spec.ExpectedReturns = []float64{0.08}
	if _, err := SimulatePortfolio(context.Background(), spec, nil); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for mismatched returns, got %v", err)
	}

	spec = portfolioSpec()
	spec.Covariance = [][]float64{{0.04}}
	if _, err := SimulatePortfolio(context.Background(), spec, nil); !IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter for mismatched covariance, got %v", err)
	}
}

func TestSimulatePortfolioCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := SimulatePortfolio(ctx, portfolioSpec(), nil); err != ErrCancelled {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}
