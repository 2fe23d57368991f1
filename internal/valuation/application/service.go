package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// ValuationService 估值服务门面。
// 同步路径直接调内核返回结果，异步路径委托给 Orchestrator。
type ValuationService struct {
	orchestrator *Orchestrator
	logger       *slog.Logger
}

func NewValuationService(orchestrator *Orchestrator, logger *slog.Logger) *ValuationService {
	return &ValuationService{orchestrator: orchestrator, logger: logger}
}

// Price 同步估值。适用于封闭解与小规模格点，调用方自行承担等待开销。
func (s *ValuationService) Price(ctx context.Context, job domain.Job) (*domain.PricingResult, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := job.Normalize().Compute(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "synchronous valuation",
		"model", job.Model, "duration", time.Since(start))
	return result, nil
}

// NPV 计算现金流净现值。
func (s *ValuationService) NPV(_ context.Context, cashFlows []float64, rate float64) (float64, error) {
	return domain.NPV(cashFlows, rate)
}

// YieldCurve 生成给定债券在收益率网格上的价格曲线。
func (s *ValuationService) YieldCurve(_ context.Context, spec domain.BondSpec, yields []float64) ([]domain.YieldCurvePoint, error) {
	return domain.BondYieldCurve(spec, yields)
}

// OptionChain 生成期权链。
func (s *ValuationService) OptionChain(_ context.Context, spot, timeToExpiry, rate, vol, kMin, kMax, kStep float64) ([]domain.ChainEntry, error) {
	return domain.OptionChain(spot, timeToExpiry, rate, vol, kMin, kMax, kStep)
}

// VolatilitySurface 生成波动率曲面。
func (s *ValuationService) VolatilitySurface(_ context.Context, spot, rate, baseVol, kRange, tMax float64) ([]domain.SurfacePoint, error) {
	return domain.VolatilitySurface(spot, rate, baseVol, kRange, tMax)
}

// Submit 提交异步估值任务。
func (s *ValuationService) Submit(ctx context.Context, job domain.Job) (*TaskDTO, error) {
	task, err := s.orchestrator.Submit(ctx, job)
	if err != nil {
		return nil, err
	}
	return toTaskDTO(task), nil
}

// TaskStatus 查询任务状态。
func (s *ValuationService) TaskStatus(ctx context.Context, id string) (*TaskDTO, error) {
	task, err := s.orchestrator.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTaskDTO(task), nil
}

// CancelTask 请求取消任务，返回请求是否被接受。
func (s *ValuationService) CancelTask(ctx context.Context, id string) (bool, error) {
	return s.orchestrator.Cancel(ctx, id)
}

// ListActiveTasks 列出未终态任务。
func (s *ValuationService) ListActiveTasks(ctx context.Context) ([]*TaskDTO, error) {
	tasks, err := s.orchestrator.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]*TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, toTaskDTO(t))
	}
	return dtos, nil
}

// CacheStats 返回结果缓存命中统计。
func (s *ValuationService) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	return s.orchestrator.CacheStats(ctx)
}
