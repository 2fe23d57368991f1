package domain

import "context"

// Job 一次估值作业：模型标识加上对应模型的参数区段。
// 同步定价与异步任务共用这一载荷，指纹也由它导出。
type Job struct {
	Model      Model           `json:"model"`
	Instrument *InstrumentSpec `json:"instrument,omitempty"`
	Bond       *BondSpec       `json:"bond,omitempty"`
	Portfolio  *PortfolioSpec  `json:"portfolio,omitempty"`
	ImpliedVol *ImpliedVolSpec `json:"implied_vol,omitempty"`
}

// Validate 校验模型与参数区段的配对及参数本身。
func (j Job) Validate() error {
	switch j.Model {
	case ModelBlackScholes:
		if j.Instrument == nil {
			return InvalidParameter("instrument is required for black_scholes")
		}
		return j.Instrument.Validate()
	case ModelBinomialTree:
		if j.Instrument == nil {
			return InvalidParameter("instrument is required for binomial_tree")
		}
		return j.Instrument.ValidateTree()
	case ModelMonteCarlo, ModelExoticOption:
		if j.Instrument == nil {
			return InvalidParameter("instrument is required for simulation models")
		}
		return j.Instrument.WithSimulationDefaults().ValidateSimulation()
	case ModelBond:
		if j.Bond == nil {
			return InvalidParameter("bond is required for bond valuation")
		}
		return j.Bond.WithDefaults().Validate()
	case ModelPortfolio:
		if j.Portfolio == nil {
			return InvalidParameter("portfolio is required for portfolio simulation")
		}
		return j.Portfolio.WithDefaults().Validate()
	case ModelImpliedVol:
		if j.ImpliedVol == nil {
			return InvalidParameter("implied_vol is required for implied volatility")
		}
		return j.ImpliedVol.Validate()
	default:
		return InvalidParameter("unknown model " + string(j.Model))
	}
}

// Normalize 返回填充了默认参数的副本。
// 指纹必须基于规范化后的作业计算，显式写出的默认值与留空等价。
func (j Job) Normalize() Job {
	switch j.Model {
	case ModelMonteCarlo, ModelExoticOption:
		if j.Instrument != nil {
			normalized := j.Instrument.WithSimulationDefaults()
			j.Instrument = &normalized
		}
	case ModelBond:
		if j.Bond != nil {
			normalized := j.Bond.WithDefaults()
			j.Bond = &normalized
		}
	case ModelPortfolio:
		if j.Portfolio != nil {
			normalized := j.Portfolio.WithDefaults()
			j.Portfolio = &normalized
		}
	}
	return j
}

// Fingerprint 计算作业的缓存指纹。
func (j Job) Fingerprint() (string, error) {
	return Fingerprint(j.Model, j.Normalize())
}

// Compute 分派到对应的定价内核。只有模拟类模型响应取消与进度回调。
func (j Job) Compute(ctx context.Context, progress ProgressFunc) (*PricingResult, error) {
	switch j.Model {
	case ModelBlackScholes:
		return BlackScholesPrice(*j.Instrument)
	case ModelBinomialTree:
		return BinomialTreePrice(*j.Instrument)
	case ModelMonteCarlo, ModelExoticOption:
		return SimulatePrice(ctx, *j.Instrument, progress)
	case ModelBond:
		return PriceBond(*j.Bond)
	case ModelPortfolio:
		return SimulatePortfolio(ctx, *j.Portfolio, progress)
	case ModelImpliedVol:
		return ImpliedVolatility(*j.ImpliedVol)
	default:
		return nil, InvalidParameter("unknown model " + string(j.Model))
	}
}
