package domain

import (
	"math"
	"time"
)

// BlackScholesPrice 计算欧式期权的解析价格与完整 Greeks。
// 纯函数，无共享状态，可被任意 goroutine 并发调用。
func BlackScholesPrice(spec InstrumentSpec) (*PricingResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	price := bsPrice(spec.OptionType, spec.Spot, spec.Strike, spec.TimeToExpiry, spec.RiskFreeRate, spec.Volatility)
	greeks := bsGreeks(spec.OptionType, spec.Spot, spec.Strike, spec.TimeToExpiry, spec.RiskFreeRate, spec.Volatility)

	return &PricingResult{
		Model:          ModelBlackScholes,
		Price:          price,
		Greeks:         &greeks,
		ComputedAt:     time.Now().UTC(),
		ComputeSeconds: time.Since(start).Seconds(),
	}, nil
}

func bsD1(s, k, t, r, sigma float64) float64 {
	return (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

func bsPrice(optionType OptionType, s, k, t, r, sigma float64) float64 {
	d1 := bsD1(s, k, t, r, sigma)
	d2 := d1 - sigma*math.Sqrt(t)

	var price float64
	if optionType == OptionCall {
		price = s*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	} else {
		price = k*math.Exp(-r*t)*normCDF(-d2) - s*normCDF(-d1)
	}
	return math.Max(price, 0)
}

func bsGreeks(optionType OptionType, s, k, t, r, sigma float64) Greeks {
	d1 := bsD1(s, k, t, r, sigma)
	d2 := d1 - sigma*math.Sqrt(t)
	pdfD1 := normPDF(d1)

	var g Greeks
	if optionType == OptionCall {
		g.Delta = normCDF(d1)
		g.Rho = k * t * math.Exp(-r*t) * normCDF(d2)
		g.Theta = (-s*pdfD1*sigma/(2*math.Sqrt(t)) - r*k*math.Exp(-r*t)*normCDF(d2)) / 365
	} else {
		g.Delta = normCDF(d1) - 1
		g.Rho = -k * t * math.Exp(-r*t) * normCDF(-d2)
		g.Theta = (-s*pdfD1*sigma/(2*math.Sqrt(t)) + r*k*math.Exp(-r*t)*normCDF(-d2)) / 365
	}
	g.Gamma = pdfD1 / (s * sigma * math.Sqrt(t))
	g.Vega = s * pdfD1 * math.Sqrt(t) / 100
	return g
}

// normCDF 标准正态分布累积分布函数。
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF 标准正态分布概率密度函数。
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
