package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/valuationengine/internal/valuation/application"
	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// ValuationHandler 估值 HTTP 处理器。
type ValuationHandler struct {
	service *application.ValuationService
}

func NewValuationHandler(service *application.ValuationService) *ValuationHandler {
	return &ValuationHandler{service: service}
}

// RegisterRoutes 将处理器方法绑定到 Gin 路由引擎。
func (h *ValuationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/valuation")
	{
		api.POST("/price", h.Price)
		api.POST("/bond", h.Bond)
		api.POST("/implied-volatility", h.ImpliedVolatility)
		api.POST("/npv", h.NPV)
		api.POST("/yield-curve", h.YieldCurve)
		api.GET("/option-chain", h.OptionChain)
		api.GET("/volatility-surface", h.VolatilitySurface)

		api.POST("/tasks", h.SubmitTask)
		api.GET("/tasks", h.ListTasks)
		api.GET("/tasks/:id", h.TaskStatus)
		api.DELETE("/tasks/:id", h.CancelTask)

		api.GET("/cache/stats", h.CacheStats)
	}
}

// Price 同步估值。请求体即估值作业。
func (h *ValuationHandler) Price(c *gin.Context) {
	var job domain.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.service.Price(c.Request.Context(), job)
	if err != nil {
		logging.Error(c.Request.Context(), "synchronous valuation failed",
			"model", job.Model, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Bond 债券估值便捷入口，等价于 model=bond 的 /price 请求。
func (h *ValuationHandler) Bond(c *gin.Context) {
	var spec domain.BondSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.service.Price(c.Request.Context(), domain.Job{Model: domain.ModelBond, Bond: &spec})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ImpliedVolatility 隐含波动率反解便捷入口。
func (h *ValuationHandler) ImpliedVolatility(c *gin.Context) {
	var spec domain.ImpliedVolSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.service.Price(c.Request.Context(), domain.Job{Model: domain.ModelImpliedVol, ImpliedVol: &spec})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// NPVRequest 净现值请求。
type NPVRequest struct {
	CashFlows    []float64 `json:"cash_flows" binding:"required"`
	DiscountRate float64   `json:"discount_rate"`
}

// NPV 计算现金流净现值。
func (h *ValuationHandler) NPV(c *gin.Context) {
	var req NPVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	npv, err := h.service.NPV(c.Request.Context(), req.CashFlows, req.DiscountRate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"npv":           npv,
		"discount_rate": req.DiscountRate,
	})
}

// YieldCurveRequest 收益率曲线请求。
type YieldCurveRequest struct {
	Bond   domain.BondSpec `json:"bond" binding:"required"`
	Yields []float64       `json:"yields"`
}

// YieldCurve 生成债券价格对收益率的曲线。
func (h *ValuationHandler) YieldCurve(c *gin.Context) {
	var req YieldCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	curve, err := h.service.YieldCurve(c.Request.Context(), req.Bond, req.Yields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"curve": curve})
}

// OptionChain 生成期权链。查询参数给出市场输入与行权价网格。
func (h *ValuationHandler) OptionChain(c *gin.Context) {
	var query struct {
		Spot         float64 `form:"spot" binding:"required"`
		TimeToExpiry float64 `form:"time_to_expiry" binding:"required"`
		RiskFreeRate float64 `form:"risk_free_rate"`
		Volatility   float64 `form:"volatility" binding:"required"`
		StrikeMin    float64 `form:"strike_min"`
		StrikeMax    float64 `form:"strike_max"`
		StrikeStep   float64 `form:"strike_step"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	chain, err := h.service.OptionChain(c.Request.Context(),
		query.Spot, query.TimeToExpiry, query.RiskFreeRate, query.Volatility,
		query.StrikeMin, query.StrikeMax, query.StrikeStep)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"chain": chain})
}

// VolatilitySurface 生成波动率曲面。
func (h *ValuationHandler) VolatilitySurface(c *gin.Context) {
	var query struct {
		Spot         float64 `form:"spot" binding:"required"`
		RiskFreeRate float64 `form:"risk_free_rate"`
		BaseVol      float64 `form:"base_vol" binding:"required"`
		StrikeRange  float64 `form:"strike_range"`
		MaxExpiry    float64 `form:"max_expiry"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	surface, err := h.service.VolatilitySurface(c.Request.Context(),
		query.Spot, query.RiskFreeRate, query.BaseVol, query.StrikeRange, query.MaxExpiry)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"surface": surface})
}

// SubmitTask 提交异步估值任务。缓存命中时直接返回已完成的任务。
func (h *ValuationHandler) SubmitTask(c *gin.Context) {
	var job domain.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	task, err := h.service.Submit(c.Request.Context(), job)
	if err != nil {
		logging.Error(c.Request.Context(), "task submission failed",
			"model", job.Model, "error", err)
		response.Error(c, err)
		return
	}
	response.SuccessWithStatus(c, http.StatusAccepted, "task accepted", task)
}

// TaskStatus 查询任务状态与结果。
func (h *ValuationHandler) TaskStatus(c *gin.Context) {
	task, err := h.service.TaskStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// CancelTask 请求取消任务。对已终态任务返回无操作标记。
func (h *ValuationHandler) CancelTask(c *gin.Context) {
	accepted, err := h.service.CancelTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"cancelled": accepted})
}

// ListTasks 列出所有未终态任务。
func (h *ValuationHandler) ListTasks(c *gin.Context) {
	tasks, err := h.service.ListActiveTasks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"tasks": tasks, "count": len(tasks)})
}

// CacheStats 返回结果缓存命中统计。
func (h *ValuationHandler) CacheStats(c *gin.Context) {
	stats, err := h.service.CacheStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
