package domain

import (
	"math"
	"time"
)

// 收益率求解的数值预算。
const (
	yieldSearchLow  = 1e-4
	yieldSearchHigh = 1.0
	yieldMaxIter    = 100
	yieldTolerance  = 1e-8
)

// BondSpec 描述一只固息债券。Yield 与 Price 恰好提供其一：
// 给定收益率求价格，或给定价格反解到期收益率。
type BondSpec struct {
	FaceValue       float64  `json:"face_value"`
	CouponRate      float64  `json:"coupon_rate"`
	YearsToMaturity float64  `json:"years_to_maturity"`
	Frequency       int      `json:"frequency"`
	Yield           *float64 `json:"yield_to_maturity,omitempty"`
	Price           *float64 `json:"price,omitempty"`
}

// Validate 校验债券参数。
func (s BondSpec) Validate() error {
	if s.FaceValue <= 0 || math.IsNaN(s.FaceValue) || math.IsInf(s.FaceValue, 0) {
		return InvalidParameter("face_value must be positive and finite")
	}
	if s.CouponRate < 0 || math.IsNaN(s.CouponRate) || math.IsInf(s.CouponRate, 0) {
		return InvalidParameter("coupon_rate must be non-negative and finite")
	}
	if s.YearsToMaturity <= 0 || math.IsNaN(s.YearsToMaturity) || math.IsInf(s.YearsToMaturity, 0) {
		return InvalidParameter("years_to_maturity must be positive and finite")
	}
	if s.Frequency < 1 {
		return InvalidParameter("frequency must be at least 1")
	}
	if (s.Yield == nil) == (s.Price == nil) {
		return InvalidParameter("exactly one of yield_to_maturity or price must be provided")
	}
	if s.Yield != nil && (*s.Yield < 0 || math.IsNaN(*s.Yield) || math.IsInf(*s.Yield, 0)) {
		return InvalidParameter("yield_to_maturity must be non-negative and finite")
	}
	if s.Price != nil && (*s.Price <= 0 || math.IsNaN(*s.Price) || math.IsInf(*s.Price, 0)) {
		return InvalidParameter("price must be positive and finite")
	}
	return nil
}

// WithDefaults 返回填充了默认付息频率（半年付）的副本。
func (s BondSpec) WithDefaults() BondSpec {
	if s.Frequency == 0 {
		s.Frequency = 2
	}
	return s
}

// PriceBond 完成一次债券估值：价格、到期收益率、久期与凸性。
func PriceBond(spec BondSpec) (*PricingResult, error) {
	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var price, ytm float64
	if spec.Yield != nil {
		ytm = *spec.Yield
		price = BondPriceFromYield(spec.FaceValue, spec.CouponRate, ytm, spec.YearsToMaturity, spec.Frequency)
	} else {
		price = *spec.Price
		var err error
		ytm, err = BondYieldFromPrice(price, spec.FaceValue, spec.CouponRate, spec.YearsToMaturity, spec.Frequency)
		if err != nil {
			return nil, err
		}
	}

	macaulay, modified := BondDuration(spec.FaceValue, spec.CouponRate, ytm, spec.YearsToMaturity, spec.Frequency)
	convexity := BondConvexity(spec.FaceValue, spec.CouponRate, ytm, spec.YearsToMaturity, spec.Frequency)

	return &PricingResult{
		Model: ModelBond,
		Price: price,
		Bond: &BondAnalytics{
			YieldToMaturity:  ytm,
			MacaulayDuration: macaulay,
			ModifiedDuration: modified,
			Convexity:        convexity,
		},
		ComputedAt:     time.Now().UTC(),
		ComputeSeconds: time.Since(start).Seconds(),
	}, nil
}

// BondPriceFromYield 由到期收益率计算债券价格。
func BondPriceFromYield(face, couponRate, ytm, years float64, frequency int) float64 {
	periods := int(years * float64(frequency))
	coupon := face * couponRate / float64(frequency)
	periodYield := ytm / float64(frequency)

	if periodYield == 0 {
		return face + coupon*float64(periods)
	}

	pvCoupons := coupon * (1 - math.Pow(1+periodYield, -float64(periods))) / periodYield
	pvFace := face / math.Pow(1+periodYield, float64(periods))
	return pvCoupons + pvFace
}

// BondYieldFromPrice 用二分法在 [1e-4, 1.0] 上反解到期收益率。
// 价格超出该收益率区间可达的范围视为非法输入；
// 在迭代预算内未达到容差则报告收敛失败。
func BondYieldFromPrice(price, face, couponRate, years float64, frequency int) (float64, error) {
	f := func(y float64) float64 {
		return BondPriceFromYield(face, couponRate, y, years, frequency) - price
	}

	lo, hi := yieldSearchLow, yieldSearchHigh
	fLo, fHi := f(lo), f(hi)
	if fLo*fHi > 0 {
		return 0, InvalidParameter("price is outside the range attainable for yields in [0.0001, 1.0]")
	}

	for i := 0; i < yieldMaxIter; i++ {
		mid := (lo + hi) / 2
		fMid := f(mid)
		if math.Abs(fMid) < yieldTolerance || (hi-lo)/2 < yieldTolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return 0, Convergence("yield search did not converge within iteration budget")
}

// BondDuration 计算麦考利久期与修正久期。
func BondDuration(face, couponRate, ytm, years float64, frequency int) (macaulay, modified float64) {
	periods := int(years * float64(frequency))
	coupon := face * couponRate / float64(frequency)
	periodYield := ytm / float64(frequency)

	var price, weighted float64
	for t := 1; t <= periods; t++ {
		cf := coupon
		if t == periods {
			cf += face
		}
		pv := cf / math.Pow(1+periodYield, float64(t))
		price += pv
		weighted += pv * float64(t) / float64(frequency)
	}

	macaulay = weighted / price
	modified = macaulay / (1 + ytm/float64(frequency))
	return macaulay, modified
}

// BondConvexity 计算凸性（对收益率的二阶敏感度，按年折算）。
func BondConvexity(face, couponRate, ytm, years float64, frequency int) float64 {
	periods := int(years * float64(frequency))
	coupon := face * couponRate / float64(frequency)
	m := float64(frequency)
	periodYield := ytm / m

	var price, weighted float64
	for t := 1; t <= periods; t++ {
		cf := coupon
		if t == periods {
			cf += face
		}
		pv := cf / math.Pow(1+periodYield, float64(t))
		price += pv
		weighted += pv * float64(t) * float64(t+1)
	}

	return weighted / (price * math.Pow(1+periodYield, 2) * m * m)
}

// YieldCurvePoint 收益率敏感度曲线上的一点。
type YieldCurvePoint struct {
	Yield float64 `json:"yield"`
	Price float64 `json:"price"`
}

// BondYieldCurve 在调用方给定的收益率网格上逐点求价。
func BondYieldCurve(spec BondSpec, yields []float64) ([]YieldCurvePoint, error) {
	spec = spec.WithDefaults()
	if spec.FaceValue <= 0 || spec.YearsToMaturity <= 0 {
		return nil, InvalidParameter("face_value and years_to_maturity must be positive")
	}
	if len(yields) == 0 {
		return nil, InvalidParameter("yield grid must not be empty")
	}

	points := make([]YieldCurvePoint, 0, len(yields))
	for _, y := range yields {
		if y < 0 || math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, InvalidParameter("yield grid values must be non-negative and finite")
		}
		points = append(points, YieldCurvePoint{
			Yield: y,
			Price: BondPriceFromYield(spec.FaceValue, spec.CouponRate, y, spec.YearsToMaturity, spec.Frequency),
		})
	}
	return points, nil
}

// NPV 计算一组期末现金流的净现值，现金流从第 1 期开始贴现。
func NPV(cashFlows []float64, discountRate float64) (float64, error) {
	if len(cashFlows) == 0 {
		return 0, InvalidParameter("cash_flows must not be empty")
	}
	if discountRate <= -1 || math.IsNaN(discountRate) || math.IsInf(discountRate, 0) {
		return 0, InvalidParameter("discount_rate must be finite and greater than -1")
	}

	var npv float64
	for i, cf := range cashFlows {
		npv += cf / math.Pow(1+discountRate, float64(i+1))
	}
	return npv, nil
}
