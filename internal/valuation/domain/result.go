package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Greeks 期权价格对各输入的敏感度。
// theta 按每日折算（/365），vega 按每个波动率点折算（/100），与市场惯例一致。
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// ConfidenceInterval 蒙特卡洛估计的 95% 置信区间。
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TerminalStats 模拟路径终值的分布统计。
type TerminalStats struct {
	Mean        float64            `json:"mean"`
	Std         float64            `json:"std"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Percentiles map[string]float64 `json:"percentiles"`
}

// BondAnalytics 债券估值的附加指标。
type BondAnalytics struct {
	YieldToMaturity  float64 `json:"yield_to_maturity"`
	MacaulayDuration float64 `json:"macaulay_duration"`
	ModifiedDuration float64 `json:"modified_duration"`
	Convexity        float64 `json:"convexity"`
}

// PortfolioStats 组合模拟的风险指标。
// 比率类指标用 float64，金额类指标沿用货币精度的 decimal。
type PortfolioStats struct {
	ExpectedReturn float64                    `json:"expected_return"`
	Volatility     float64                    `json:"volatility"`
	SharpeRatio    float64                    `json:"sharpe_ratio"`
	Confidence     float64                    `json:"confidence"`
	VaR            decimal.Decimal            `json:"var"`
	CVaR           decimal.Decimal            `json:"cvar"`
	VaR95          decimal.Decimal            `json:"var_95"`
	VaR99          decimal.Decimal            `json:"var_99"`
	CVaR95         decimal.Decimal            `json:"cvar_95"`
	CVaR99         decimal.Decimal            `json:"cvar_99"`
	MaxDrawdown    decimal.Decimal            `json:"max_drawdown"`
	MeanFinalValue decimal.Decimal            `json:"mean_final_value"`
	StdFinalValue  decimal.Decimal            `json:"std_final_value"`
	Percentiles    map[string]decimal.Decimal `json:"percentiles"`
}

// PricingResult 一次估值的输出。一旦产生即不可变。
// Price 为点估计；模拟类结果附带标准误与置信区间；
// 债券与组合估值通过专用区段携带各自的附加指标。
type PricingResult struct {
	Model             Model               `json:"model"`
	Price             float64             `json:"price"`
	Greeks            *Greeks             `json:"greeks,omitempty"`
	StdError          float64             `json:"std_error,omitempty"`
	Confidence        *ConfidenceInterval `json:"confidence_interval,omitempty"`
	ImpliedVolatility float64             `json:"implied_volatility,omitempty"`
	Terminal          *TerminalStats      `json:"terminal_stats,omitempty"`
	Bond              *BondAnalytics      `json:"bond,omitempty"`
	Portfolio         *PortfolioStats     `json:"portfolio,omitempty"`
	ComputedAt        time.Time           `json:"computed_at"`
	ComputeSeconds    float64             `json:"compute_seconds"`
}
