package handler

import (
	"context"
	"errors"
	"fmt"
	"io"

	"career-insight-go/internal/cluster"
	"career-insight-go/internal/config"
	"career-insight-go/internal/gap"
	"career-insight-go/internal/logger"
	"career-insight-go/internal/parser"
	"career-insight-go/internal/processor"
	"career-insight-go/internal/types"
	"career-insight-go/pkg/ratelimit"
)

// InsightHandler 协调简历匹配与技能分析的HTTP业务入口
type InsightHandler struct {
	cfg       *config.Config
	processor *processor.InsightProcessor
	analyzer  *gap.Analyzer
	labeler   *cluster.Labeler
}

// NewInsightHandler 创建业务处理器
func NewInsightHandler(
	cfg *config.Config,
	insightProcessor *processor.InsightProcessor,
	analyzer *gap.Analyzer,
	labeler *cluster.Labeler,
) *InsightHandler {
	return &InsightHandler{
		cfg:       cfg,
		processor: insightProcessor,
		analyzer:  analyzer,
		labeler:   labeler,
	}
}

// HandleResumeMatch 处理简历匹配请求：PDF → 画像 → top-k 职位
func (h *InsightHandler) HandleResumeMatch(ctx context.Context, reader io.Reader, filename string, topK int) (*processor.MatchResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("上传文件为空")
	}

	if topK <= 0 {
		topK = h.cfg.Corpus.DefaultTopK
	}

	result, err := h.processor.MatchFromPDF(ctx, data, filename, topK)
	if err != nil {
		logger.Error().Err(err).Str("filename", filename).Msg("简历匹配失败")
		return nil, err
	}
	return result, nil
}

// SkillsAnalyzeResponse 技能差距分析响应
type SkillsAnalyzeResponse struct {
	UserCategories     []string              `json:"user_categories"`
	MissingCategories  []string              `json:"missing_categories"`
	DemandedCategories []string              `json:"demanded_categories"`
	TopSkills          []types.SkillCategory `json:"top_skills"`
	// 覆盖全部需求类别时为庆祝文案；存在缺口时为空
	Message string `json:"message,omitempty"`
}

// HandleSkillsAnalyze 处理技能差距分析请求
// 候选人覆盖全部需求类别时进入庆祝终态，不再发起后续生成
func (h *InsightHandler) HandleSkillsAnalyze(ctx context.Context, skills []string) (*SkillsAnalyzeResponse, error) {
	report, err := h.analyzer.Analyze(ctx, skills)
	if err != nil {
		return nil, err
	}

	resp := &SkillsAnalyzeResponse{
		UserCategories:     report.CandidateCategories,
		MissingCategories:  report.MissingCategories,
		DemandedCategories: report.DemandedCategories,
		TopSkills:          h.analyzer.DemandedCategories(),
	}
	if report.Covered() {
		resp.Message = gap.CelebrationMessage
	}
	return resp, nil
}

// SkillsClusterResponse 技能聚类响应
type SkillsClusterResponse struct {
	Points []types.SkillClusterPoint `json:"points"`
	// 技能不足以聚类时的说明
	Message string `json:"message,omitempty"`
}

// HandleSkillsCluster 处理技能聚类请求
func (h *InsightHandler) HandleSkillsCluster(ctx context.Context, skills []string) (*SkillsClusterResponse, error) {
	points, err := h.labeler.Label(ctx, skills)
	if err != nil {
		return nil, err
	}
	if points == nil {
		return &SkillsClusterResponse{
			Points:  []types.SkillClusterPoint{},
			Message: "技能数量不足，至少需要3个不同技能",
		}, nil
	}
	return &SkillsClusterResponse{Points: points}, nil
}

// MarketInsightsResponse 市场需求洞察响应
type MarketInsightsResponse struct {
	TopSkills []types.SkillCategory `json:"top_skills"`
}

// HandleMarketInsights 返回需求最高的N个技能类别
func (h *InsightHandler) HandleMarketInsights(ctx context.Context) (*MarketInsightsResponse, error) {
	return &MarketInsightsResponse{
		TopSkills: h.analyzer.DemandedCategories(),
	}, nil
}

// StructuringErrorStatus 把结构化失败类别映射为HTTP语义
// 限流（含重试耗尽后升级的服务失败）→ 429，其余服务失败与解析失败 → 502
func StructuringErrorStatus(err error) (int, bool) {
	var sErr *parser.StructuringError
	if !errors.As(err, &sErr) {
		return 0, false
	}
	if sErr.Kind == parser.StructuringRateLimited {
		return 429, true
	}
	if sErr.Err != nil && ratelimit.RateLimitClassifier(sErr.Err) == ratelimit.Retryable {
		return 429, true
	}
	return 502, true
}
