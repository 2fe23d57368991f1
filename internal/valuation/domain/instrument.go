package domain

import (
	"fmt"
	"math"
)

// Model 标识一次估值请求使用的定价模型。
type Model string

const (
	ModelBlackScholes Model = "black_scholes"
	ModelBinomialTree Model = "binomial_tree"
	ModelMonteCarlo   Model = "monte_carlo"
	ModelExoticOption Model = "exotic_option"
	ModelBond         Model = "bond"
	ModelPortfolio    Model = "portfolio"
	ModelImpliedVol   Model = "implied_volatility"
)

// OptionType 期权方向。
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// ExerciseStyle 行权方式。
type ExerciseStyle string

const (
	StyleEuropean ExerciseStyle = "european"
	StyleAmerican ExerciseStyle = "american"
)

// ExoticClass 奇异期权类型，按路径收益函数分派。
type ExoticClass string

const (
	ExoticAsian    ExoticClass = "asian"
	ExoticBarrier  ExoticClass = "barrier"
	ExoticLookback ExoticClass = "lookback"
)

// BarrierType 障碍期权的触碰方向与敲入/敲出组合。
type BarrierType string

const (
	BarrierDownAndOut BarrierType = "down_and_out"
	BarrierDownAndIn  BarrierType = "down_and_in"
	BarrierUpAndOut   BarrierType = "up_and_out"
	BarrierUpAndIn    BarrierType = "up_and_in"
)

// AverageType 亚式期权的均值口径。
type AverageType string

const (
	AverageArithmetic AverageType = "arithmetic"
	AverageGeometric  AverageType = "geometric"
)

// LookbackType 回望期权的执行价口径。
type LookbackType string

const (
	LookbackFloating LookbackType = "floating"
	LookbackFixed    LookbackType = "fixed"
)

// 模拟与格点参数的默认值和上界。
const (
	DefaultSimulationSteps = 252
	DefaultPaths           = 10000
	DefaultSeed            = 42
	MaxTreeSteps           = 10000
	MaxPaths               = 10_000_000
	MaxSimulationSteps     = 100_000
)

// InstrumentSpec 描述一份期权类工具及其市场输入。
// 创建后不可变；Validate 在入口处调用一次，之后各内核可以假设字段合法。
type InstrumentSpec struct {
	Spot         float64       `json:"spot"`
	Strike       float64       `json:"strike"`
	TimeToExpiry float64       `json:"time_to_expiry"`
	RiskFreeRate float64       `json:"risk_free_rate"`
	Volatility   float64       `json:"volatility"`
	OptionType   OptionType    `json:"option_type"`
	Style        ExerciseStyle `json:"style,omitempty"`

	// 格点模型参数。
	Steps int `json:"steps,omitempty"`

	// 模拟参数。
	Paths int   `json:"paths,omitempty"`
	Seed  int64 `json:"seed,omitempty"`

	// 奇异期权参数。
	ExoticClass  ExoticClass  `json:"exotic_class,omitempty"`
	Barrier      float64      `json:"barrier,omitempty"`
	BarrierType  BarrierType  `json:"barrier_type,omitempty"`
	AverageType  AverageType  `json:"average_type,omitempty"`
	LookbackType LookbackType `json:"lookback_type,omitempty"`
}

// Validate 校验市场输入。价格/波动率/期限必须有限且非负，期限与波动率必须为正。
func (s InstrumentSpec) Validate() error {
	for name, v := range map[string]float64{
		"spot":           s.Spot,
		"strike":         s.Strike,
		"time_to_expiry": s.TimeToExpiry,
		"volatility":     s.Volatility,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return InvalidParameter(fmt.Sprintf("%s must be finite", name))
		}
		if v < 0 {
			return InvalidParameter(fmt.Sprintf("%s must be non-negative", name))
		}
	}
	if math.IsNaN(s.RiskFreeRate) || math.IsInf(s.RiskFreeRate, 0) {
		return InvalidParameter("risk_free_rate must be finite")
	}
	if s.Spot == 0 {
		return InvalidParameter("spot must be positive")
	}
	if s.TimeToExpiry <= 0 {
		return InvalidParameter("time_to_expiry must be positive")
	}
	if s.Volatility <= 0 {
		return InvalidParameter("volatility must be positive")
	}
	if s.OptionType != OptionCall && s.OptionType != OptionPut {
		return InvalidParameter(fmt.Sprintf("unknown option_type %q", s.OptionType))
	}
	return nil
}

// ValidateTree 在 Validate 之上校验格点参数。
func (s InstrumentSpec) ValidateTree() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Steps < 1 {
		return InvalidParameter("steps must be at least 1")
	}
	if s.Steps > MaxTreeSteps {
		return InvalidParameter(fmt.Sprintf("steps must not exceed %d", MaxTreeSteps))
	}
	switch s.Style {
	case StyleEuropean, StyleAmerican:
	default:
		return InvalidParameter(fmt.Sprintf("unknown exercise style %q", s.Style))
	}
	return nil
}

// ValidateSimulation 在 Validate 之上校验模拟参数与奇异期权参数。
func (s InstrumentSpec) ValidateSimulation() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Paths < 1 || s.Paths > MaxPaths {
		return InvalidParameter(fmt.Sprintf("paths must be in [1, %d]", MaxPaths))
	}
	if s.Steps < 1 || s.Steps > MaxSimulationSteps {
		return InvalidParameter(fmt.Sprintf("steps must be in [1, %d]", MaxSimulationSteps))
	}
	switch s.ExoticClass {
	case "":
		// 普通欧式到期收益。
	case ExoticAsian:
		if s.AverageType != AverageArithmetic && s.AverageType != AverageGeometric {
			return InvalidParameter(fmt.Sprintf("unknown average_type %q", s.AverageType))
		}
	case ExoticBarrier:
		if s.Barrier <= 0 || math.IsNaN(s.Barrier) || math.IsInf(s.Barrier, 0) {
			return InvalidParameter("barrier must be positive and finite")
		}
		switch s.BarrierType {
		case BarrierDownAndOut, BarrierDownAndIn, BarrierUpAndOut, BarrierUpAndIn:
		default:
			return InvalidParameter(fmt.Sprintf("unknown barrier_type %q", s.BarrierType))
		}
	case ExoticLookback:
		if s.LookbackType != LookbackFloating && s.LookbackType != LookbackFixed {
			return InvalidParameter(fmt.Sprintf("unknown lookback_type %q", s.LookbackType))
		}
	default:
		return InvalidParameter(fmt.Sprintf("unknown exotic class %q", s.ExoticClass))
	}
	return nil
}

// WithSimulationDefaults 返回填充了模拟默认参数的副本。
func (s InstrumentSpec) WithSimulationDefaults() InstrumentSpec {
	if s.Paths == 0 {
		s.Paths = DefaultPaths
	}
	if s.Steps == 0 {
		s.Steps = DefaultSimulationSteps
	}
	if s.Seed == 0 {
		s.Seed = DefaultSeed
	}
	return s
}

func (s InstrumentSpec) intrinsic(price float64) float64 {
	if s.OptionType == OptionCall {
		return math.Max(price-s.Strike, 0)
	}
	return math.Max(s.Strike-price, 0)
}
