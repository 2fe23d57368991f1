package domain

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	algomath "github.com/wyfcoding/pkg/algorithm/math"
)

// PortfolioSpec 组合蒙特卡洛模拟请求。
// 协方差矩阵必须对称且半正定（通过 Cholesky 分解校验）。
type PortfolioSpec struct {
	Weights         []float64       `json:"weights"`
	ExpectedReturns []float64       `json:"expected_returns"`
	Covariance      [][]float64     `json:"covariance"`
	InitialValue    decimal.Decimal `json:"initial_value"`
	TimeHorizon     float64         `json:"time_horizon"`
	Simulations     int             `json:"simulations"`
	Confidence      float64         `json:"confidence"`
	Seed            int64           `json:"seed,omitempty"`
}

// WithDefaults 返回填充了默认参数的副本。
func (s PortfolioSpec) WithDefaults() PortfolioSpec {
	if s.InitialValue.IsZero() {
		s.InitialValue = decimal.NewFromInt(100000)
	}
	if s.TimeHorizon == 0 {
		s.TimeHorizon = 1.0
	}
	if s.Simulations == 0 {
		s.Simulations = DefaultPaths
	}
	if s.Confidence == 0 {
		s.Confidence = 0.95
	}
	if s.Seed == 0 {
		s.Seed = DefaultSeed
	}
	return s
}

// Validate 校验组合参数。
func (s PortfolioSpec) Validate() error {
	n := len(s.Weights)
	if n == 0 {
		return InvalidParameter("weights must not be empty")
	}
	if len(s.ExpectedReturns) != n {
		return InvalidParameter("expected_returns must match weights length")
	}
	if len(s.Covariance) != n {
		return InvalidParameter("covariance must be a square matrix matching weights length")
	}
	for i, row := range s.Covariance {
		if len(row) != n {
			return InvalidParameter("covariance must be a square matrix matching weights length")
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return InvalidParameter("covariance entries must be finite")
			}
			if math.Abs(v-s.Covariance[j][i]) > 1e-12 {
				return InvalidParameter("covariance matrix must be symmetric")
			}
		}
	}
	for _, v := range append(append([]float64{}, s.Weights...), s.ExpectedReturns...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return InvalidParameter("weights and expected_returns must be finite")
		}
	}
	if s.InitialValue.IsNegative() || s.InitialValue.IsZero() {
		return InvalidParameter("initial_value must be positive")
	}
	if s.TimeHorizon <= 0 {
		return InvalidParameter("time_horizon must be positive")
	}
	if s.Simulations < 1 || s.Simulations > MaxPaths {
		return InvalidParameter("simulations out of range")
	}
	if s.Confidence <= 0 || s.Confidence >= 1 {
		return InvalidParameter("confidence must be in (0, 1)")
	}
	return nil
}

// SimulatePortfolio 抽取相关联的资产收益，聚合组合终值并报告
// VaR/CVaR/Sharpe 等风险指标。零方差组合的夏普比无定义，按非法参数处理。
func SimulatePortfolio(ctx context.Context, spec PortfolioSpec, progress ProgressFunc) (*PricingResult, error) {
	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	n := len(spec.Weights)

	var portfolioReturn float64
	for i := range spec.Weights {
		portfolioReturn += spec.Weights[i] * spec.ExpectedReturns[i]
	}
	var portfolioVariance float64
	for i := range spec.Weights {
		for j := range spec.Weights {
			portfolioVariance += spec.Weights[i] * spec.Weights[j] * spec.Covariance[i][j]
		}
	}
	volatility := math.Sqrt(math.Max(portfolioVariance, 0))
	if volatility == 0 {
		return nil, InvalidParameter("portfolio has zero variance; risk metrics are undefined")
	}

	sigma, err := algomath.NewMatrixFromData(spec.Covariance)
	if err != nil {
		return nil, InvalidParameter("covariance matrix is malformed")
	}
	chol, err := sigma.Cholesky()
	if err != nil {
		// 严格正定分解失败时退回容忍零主元的半正定分解。
		// 完全相关或退化资产构成的奇异协方差是合法输入。
		factors, psdErr := choleskyPSD(spec.Covariance)
		if psdErr != nil {
			return nil, psdErr
		}
		chol, err = algomath.NewMatrixFromData(factors)
		if err != nil {
			return nil, InvalidParameter("covariance matrix is malformed")
		}
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	initial := spec.InitialValue.InexactFloat64()

	finals := make([]float64, 0, spec.Simulations)
	z := make([]float64, n)
	for done := 0; done < spec.Simulations; {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		batchEnd := done + DefaultBatchSize
		if batchEnd > spec.Simulations {
			batchEnd = spec.Simulations
		}
		for i := done; i < batchEnd; i++ {
			for k := range z {
				z[k] = rng.NormFloat64()
			}
			// 相关收益 = mu + L·z，逐资产加权聚合。
			var ret float64
			for a := 0; a < n; a++ {
				corr := spec.ExpectedReturns[a]
				for k := 0; k <= a; k++ {
					corr += chol.Get(a, k) * z[k]
				}
				ret += spec.Weights[a] * corr
			}
			finals = append(finals, initial*(1+ret*spec.TimeHorizon))
		}
		done = batchEnd
		if progress != nil {
			progress(done, spec.Simulations)
		}
	}

	sorted := make([]float64, len(finals))
	copy(sorted, finals)
	sort.Float64s(sorted)

	stats := buildPortfolioStats(spec, sorted, portfolioReturn, volatility, initial)
	meanFinal := stats.MeanFinalValue.InexactFloat64()

	return &PricingResult{
		Model:          ModelPortfolio,
		Price:          meanFinal,
		Portfolio:      stats,
		ComputedAt:     time.Now().UTC(),
		ComputeSeconds: time.Since(start).Seconds(),
	}, nil
}

// choleskyPSD 半正定 Cholesky 分解。零主元对应退化方向，整列置零；
// 主元显著为负或零主元下方残差非零说明矩阵存在负特征值。
func choleskyPSD(a [][]float64) ([][]float64, error) {
	n := len(a)
	var scale float64
	for i := 0; i < n; i++ {
		if d := math.Abs(a[i][i]); d > scale {
			scale = d
		}
	}
	tol := 1e-10 * math.Max(scale, 1)

	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		d := a[j][j]
		for k := 0; k < j; k++ {
			d -= l[j][k] * l[j][k]
		}
		if d < -tol {
			return nil, InvalidParameter("covariance matrix must be symmetric positive semi-definite")
		}
		if d <= tol {
			for i := j + 1; i < n; i++ {
				s := a[i][j]
				for k := 0; k < j; k++ {
					s -= l[i][k] * l[j][k]
				}
				if math.Abs(s) > tol {
					return nil, InvalidParameter("covariance matrix must be symmetric positive semi-definite")
				}
			}
			continue
		}
		l[j][j] = math.Sqrt(d)
		for i := j + 1; i < n; i++ {
			s := a[i][j]
			for k := 0; k < j; k++ {
				s -= l[i][k] * l[j][k]
			}
			l[i][j] = s / l[j][j]
		}
	}
	return l, nil
}

var portfolioPercentiles = []float64{1, 5, 25, 50, 75, 95, 99}

func buildPortfolioStats(spec PortfolioSpec, sorted []float64, portfolioReturn, volatility, initial float64) *PortfolioStats {
	n := float64(len(sorted))
	var sum, sumSq float64
	for _, v := range sorted {
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	std := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))

	varAt := func(confidence float64) float64 {
		return percentile(sorted, (1-confidence)*100)
	}
	cvarAt := func(varValue float64) float64 {
		var tailSum float64
		var count int
		for _, v := range sorted {
			if v > varValue {
				break
			}
			tailSum += v
			count++
		}
		if count == 0 {
			return varValue
		}
		return tailSum / float64(count)
	}

	varConf := varAt(spec.Confidence)
	var95 := varAt(0.95)
	var99 := varAt(0.99)

	percentiles := make(map[string]decimal.Decimal, len(portfolioPercentiles))
	for _, p := range portfolioPercentiles {
		percentiles["p"+strconv.FormatFloat(p, 'f', -1, 64)] = decimal.NewFromFloat(percentile(sorted, p))
	}

	return &PortfolioStats{
		ExpectedReturn: portfolioReturn,
		Volatility:     volatility,
		SharpeRatio:    portfolioReturn / volatility,
		Confidence:     spec.Confidence,
		VaR:            decimal.NewFromFloat(varConf),
		CVaR:           decimal.NewFromFloat(cvarAt(varConf)),
		VaR95:          decimal.NewFromFloat(var95),
		VaR99:          decimal.NewFromFloat(var99),
		CVaR95:         decimal.NewFromFloat(cvarAt(var95)),
		CVaR99:         decimal.NewFromFloat(cvarAt(var99)),
		MaxDrawdown:    decimal.NewFromFloat(initial - sorted[0]),
		MeanFinalValue: decimal.NewFromFloat(mean),
		StdFinalValue:  decimal.NewFromFloat(std),
		Percentiles:    percentiles,
	}
}
