package domain

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"
)

// DefaultBatchSize 路径批大小，也是协作式取消与进度上报的粒度。
const DefaultBatchSize = 1000

// ProgressFunc 在每个路径批次结束后回调，报告已处理路径数与总数。
type ProgressFunc func(done, total int)

// SimulatePrice 用几何布朗运动蒙特卡洛为（含奇异类收益的）期权估价。
// 价格为贴现后的平均收益，标准误为样本标准差除以 sqrt(路径数)。
// 障碍与回望收益只在离散模拟步上监测，存在离散化偏差，属建模口径而非缺陷。
// 取消通过 ctx 在批次边界协作式生效，被取消的计算不产生任何部分结果。
func SimulatePrice(ctx context.Context, spec InstrumentSpec, progress ProgressFunc) (*PricingResult, error) {
	spec = spec.WithSimulationDefaults()
	if err := spec.ValidateSimulation(); err != nil {
		return nil, err
	}

	start := time.Now()
	// 固定种子保证同一 InstrumentSpec 的估计可复现，这也是缓存指纹成立的前提。
	rng := rand.New(rand.NewSource(spec.Seed))

	dt := spec.TimeToExpiry / float64(spec.Steps)
	drift := (spec.RiskFreeRate - 0.5*spec.Volatility*spec.Volatility) * dt
	diffusion := spec.Volatility * math.Sqrt(dt)
	discount := math.Exp(-spec.RiskFreeRate * spec.TimeToExpiry)

	var paySum, paySumSq float64
	terminals := make([]float64, 0, spec.Paths)
	path := make([]float64, spec.Steps+1)

	for done := 0; done < spec.Paths; {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		batchEnd := done + DefaultBatchSize
		if batchEnd > spec.Paths {
			batchEnd = spec.Paths
		}
		for i := done; i < batchEnd; i++ {
			path[0] = spec.Spot
			for j := 1; j <= spec.Steps; j++ {
				path[j] = path[j-1] * math.Exp(drift+diffusion*rng.NormFloat64())
			}
			pay := pathPayoff(spec, path)
			paySum += pay
			paySumSq += pay * pay
			terminals = append(terminals, path[spec.Steps])
		}
		done = batchEnd
		if progress != nil {
			progress(done, spec.Paths)
		}
	}

	n := float64(spec.Paths)
	mean := paySum / n
	variance := paySumSq/n - mean*mean
	std := math.Sqrt(math.Max(variance, 0))

	price := discount * mean
	stdErr := discount * std / math.Sqrt(n)

	model := ModelMonteCarlo
	if spec.ExoticClass != "" {
		model = ModelExoticOption
	}

	return &PricingResult{
		Model:    model,
		Price:    price,
		StdError: stdErr,
		Confidence: &ConfidenceInterval{
			Lower: price - 1.96*stdErr,
			Upper: price + 1.96*stdErr,
		},
		Terminal:       terminalStats(terminals),
		ComputedAt:     time.Now().UTC(),
		ComputeSeconds: time.Since(start).Seconds(),
	}, nil
}

// pathPayoff 按奇异类型分派单条路径的收益。路径含初始价位 path[0]。
func pathPayoff(spec InstrumentSpec, path []float64) float64 {
	switch spec.ExoticClass {
	case ExoticAsian:
		return asianPayoff(spec, path)
	case ExoticBarrier:
		return barrierPayoff(spec, path)
	case ExoticLookback:
		return lookbackPayoff(spec, path)
	default:
		return spec.intrinsic(path[len(path)-1])
	}
}

func asianPayoff(spec InstrumentSpec, path []float64) float64 {
	var average float64
	if spec.AverageType == AverageGeometric {
		var logSum float64
		for _, p := range path {
			logSum += math.Log(p)
		}
		average = math.Exp(logSum / float64(len(path)))
	} else {
		var sum float64
		for _, p := range path {
			sum += p
		}
		average = sum / float64(len(path))
	}
	return spec.intrinsic(average)
}

func barrierPayoff(spec InstrumentSpec, path []float64) float64 {
	down := spec.BarrierType == BarrierDownAndOut || spec.BarrierType == BarrierDownAndIn
	hit := false
	for _, p := range path {
		if (down && p <= spec.Barrier) || (!down && p >= spec.Barrier) {
			hit = true
			break
		}
	}

	intrinsic := spec.intrinsic(path[len(path)-1])
	knockOut := spec.BarrierType == BarrierDownAndOut || spec.BarrierType == BarrierUpAndOut
	if knockOut {
		if hit {
			return 0
		}
		return intrinsic
	}
	if hit {
		return intrinsic
	}
	return 0
}

func lookbackPayoff(spec InstrumentSpec, path []float64) float64 {
	minPrice, maxPrice := path[0], path[0]
	for _, p := range path[1:] {
		minPrice = math.Min(minPrice, p)
		maxPrice = math.Max(maxPrice, p)
	}
	final := path[len(path)-1]

	if spec.LookbackType == LookbackFloating {
		if spec.OptionType == OptionCall {
			return math.Max(final-minPrice, 0)
		}
		return math.Max(maxPrice-final, 0)
	}
	if spec.OptionType == OptionCall {
		return math.Max(maxPrice-spec.Strike, 0)
	}
	return math.Max(spec.Strike-minPrice, 0)
}

var statPercentiles = []float64{5, 25, 50, 75, 95}

func terminalStats(values []float64) *TerminalStats {
	n := float64(len(values))
	var sum, sumSq float64
	minV, maxV := values[0], values[0]
	for _, v := range values {
		sum += v
		sumSq += v * v
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	mean := sum / n
	std := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	percentiles := make(map[string]float64, len(statPercentiles))
	for _, p := range statPercentiles {
		percentiles["p"+strconv.FormatFloat(p, 'f', -1, 64)] = percentile(sorted, p)
	}

	return &TerminalStats{
		Mean:        mean,
		Std:         std,
		Min:         minV,
		Max:         maxV,
		Percentiles: percentiles,
	}
}

// percentile 线性插值分位数，输入必须已排序。
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
