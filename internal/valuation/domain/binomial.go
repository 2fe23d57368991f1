package domain

import (
	"math"
	"time"
)

// BinomialTreePrice 用 CRR 二叉树为期权定价。
// 美式在每个节点取 max(继续持有价值, 行权价值)；欧式只做贴现回溯。
// 给定相同输入结果完全确定，不含随机性。
func BinomialTreePrice(spec InstrumentSpec) (*PricingResult, error) {
	if err := spec.ValidateTree(); err != nil {
		return nil, err
	}

	start := time.Now()
	n := spec.Steps
	dt := spec.TimeToExpiry / float64(n)
	u := math.Exp(spec.Volatility * math.Sqrt(dt))
	d := 1 / u
	p := (math.Exp(spec.RiskFreeRate*dt) - d) / (u - d)
	disc := math.Exp(-spec.RiskFreeRate * dt)

	// 到期层：values[j] 对应 j 次下行。
	values := make([]float64, n+1)
	for j := 0; j <= n; j++ {
		values[j] = spec.intrinsic(spec.Spot * math.Pow(u, float64(n-j)) * math.Pow(d, float64(j)))
	}

	// 反向回溯，原地收缩。
	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			continuation := disc * (p*values[j] + (1-p)*values[j+1])
			if spec.Style == StyleAmerican {
				node := spec.Spot * math.Pow(u, float64(i-j)) * math.Pow(d, float64(j))
				values[j] = math.Max(continuation, spec.intrinsic(node))
			} else {
				values[j] = continuation
			}
		}
	}

	return &PricingResult{
		Model:          ModelBinomialTree,
		Price:          values[0],
		ComputedAt:     time.Now().UTC(),
		ComputeSeconds: time.Since(start).Seconds(),
	}, nil
}
