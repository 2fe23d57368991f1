package domain

import "math"

// ChainEntry 期权链上单一行权价的报价与敏感度。
// gamma/theta/vega 对 call 与 put 相同，只报告一份。
type ChainEntry struct {
	Strike    float64 `json:"strike"`
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
	CallDelta float64 `json:"call_delta"`
	PutDelta  float64 `json:"put_delta"`
	Gamma     float64 `json:"gamma"`
	Theta     float64 `json:"theta"`
	Vega      float64 `json:"vega"`
}

// OptionChain 在行权价网格上生成期权链。Kmin/Kmax 为 0 时默认取现价的 ±20%。
func OptionChain(s, t, r, sigma, kMin, kMax, kStep float64) ([]ChainEntry, error) {
	if s <= 0 || t <= 0 || sigma <= 0 {
		return nil, InvalidParameter("spot, time_to_expiry and volatility must be positive")
	}
	if kMin == 0 {
		kMin = s * 0.8
	}
	if kMax == 0 {
		kMax = s * 1.2
	}
	if kStep <= 0 {
		kStep = 5.0
	}
	if kMin <= 0 || kMax < kMin {
		return nil, InvalidParameter("strike range is invalid")
	}

	var chain []ChainEntry
	for k := kMin; k <= kMax+1e-9; k += kStep {
		callGreeks := bsGreeks(OptionCall, s, k, t, r, sigma)
		putGreeks := bsGreeks(OptionPut, s, k, t, r, sigma)
		chain = append(chain, ChainEntry{
			Strike:    k,
			CallPrice: bsPrice(OptionCall, s, k, t, r, sigma),
			PutPrice:  bsPrice(OptionPut, s, k, t, r, sigma),
			CallDelta: callGreeks.Delta,
			PutDelta:  putGreeks.Delta,
			Gamma:     callGreeks.Gamma,
			Theta:     callGreeks.Theta,
			Vega:      callGreeks.Vega,
		})
	}
	return chain, nil
}

// SurfacePoint 波动率曲面上一点。
type SurfacePoint struct {
	Strike       float64 `json:"strike"`
	TimeToExpiry float64 `json:"time_to_expiry"`
	Volatility   float64 `json:"volatility"`
	CallPrice    float64 `json:"call_price"`
	PutPrice     float64 `json:"put_price"`
	Moneyness    float64 `json:"moneyness"`
}

// VolatilitySurface 用简化的微笑模型生成波动率曲面：
// vol = base·(1 + 0.1·moneyness² + 0.05·√T)。
func VolatilitySurface(s, r, baseVol, kRange, tMax float64) ([]SurfacePoint, error) {
	if s <= 0 || baseVol <= 0 {
		return nil, InvalidParameter("spot and base volatility must be positive")
	}
	if kRange <= 0 {
		kRange = 0.4
	}
	if tMax <= 0 {
		tMax = 2.0
	}

	const (
		strikeCount = 10
		timeCount   = 8
	)
	kLow := s * (1 - kRange/2)
	kHigh := s * (1 + kRange/2)

	var surface []SurfacePoint
	for ti := 0; ti < timeCount; ti++ {
		t := 0.1 + (tMax-0.1)*float64(ti)/float64(timeCount-1)
		for ki := 0; ki < strikeCount; ki++ {
			k := kLow + (kHigh-kLow)*float64(ki)/float64(strikeCount-1)
			moneyness := math.Log(k / s)
			vol := baseVol * (1 + 0.1*moneyness*moneyness + 0.05*math.Sqrt(t))
			surface = append(surface, SurfacePoint{
				Strike:       k,
				TimeToExpiry: t,
				Volatility:   vol,
				CallPrice:    bsPrice(OptionCall, s, k, t, r, vol),
				PutPrice:     bsPrice(OptionPut, s, k, t, r, vol),
				Moneyness:    moneyness,
			})
		}
	}
	return surface, nil
}
