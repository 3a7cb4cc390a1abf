package processor

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"career-insight-go/internal/logger"
	"career-insight-go/internal/parser"
	"career-insight-go/internal/types"
)

// MatchResult 简历匹配流水线的完整产出
type MatchResult struct {
	RequestID string                   `json:"request_id"`
	Parsed    *types.ResumeParseResult `json:"parsed"`
	Profile   *types.StructuredProfile `json:"profile"`
	Matches   []types.JobMatch         `json:"matches"`
}

// InsightProcessor 简历 → 画像 → 职位匹配的流水线编排
type InsightProcessor struct {
	extractor  TextExtractor
	structurer ProfileStructurer
	embedder   embedding.Embedder
	searcher   JobSearcher
	cache      ProfileCache // 可为 nil，缓存是可选依赖
	topK       int
}

// InsightProcessorOption 流水线配置选项
type InsightProcessorOption func(*InsightProcessor)

// WithProfileCache 启用画像缓存
func WithProfileCache(cache ProfileCache) InsightProcessorOption {
	return func(p *InsightProcessor) { p.cache = cache }
}

// WithDefaultTopK 设置默认检索条数
func WithDefaultTopK(k int) InsightProcessorOption {
	return func(p *InsightProcessor) {
		if k > 0 {
			p.topK = k
		}
	}
}

// NewInsightProcessor 创建流水线
func NewInsightProcessor(
	extractor TextExtractor,
	structurer ProfileStructurer,
	embedder embedding.Embedder,
	searcher JobSearcher,
	options ...InsightProcessorOption,
) *InsightProcessor {
	p := &InsightProcessor{
		extractor:  extractor,
		structurer: structurer,
		embedder:   embedder,
		searcher:   searcher,
		topK:       6,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// MatchFromPDF 完整流水线：PDF → 文本 → 本地解析 → 画像 → 检索
func (p *InsightProcessor) MatchFromPDF(ctx context.Context, pdfData []byte, filename string, topK int) (*MatchResult, error) {
	requestID := uuid.New().String()

	text, err := p.extractor.ExtractFromBytes(ctx, pdfData, filename)
	if err != nil {
		return nil, NewExtractError(requestID, err.Error())
	}

	return p.matchFromText(ctx, requestID, text, topK)
}

// MatchFromText 跳过PDF提取的流水线入口（纯文本简历）
func (p *InsightProcessor) MatchFromText(ctx context.Context, text string, topK int) (*MatchResult, error) {
	return p.matchFromText(ctx, uuid.New().String(), text, topK)
}

func (p *InsightProcessor) matchFromText(ctx context.Context, requestID, text string, topK int) (*MatchResult, error) {
	if topK <= 0 {
		topK = p.topK
	}

	parsed := parser.ParseResume(text)
	summary := parser.BuildAnalysisSummary(parsed)

	profile, err := p.structureProfile(ctx, requestID, summary)
	if err != nil {
		return nil, err
	}

	// 用画像概述（不含具体技术名词）做语义检索
	vectors, err := p.embedder.EmbedStrings(ctx, []string{profile.SummaryText})
	if err != nil {
		return nil, NewEmbeddingError(requestID, err.Error())
	}
	if len(vectors) == 0 {
		return nil, NewEmbeddingError(requestID, "嵌入服务返回空结果")
	}

	matches, err := p.searcher.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, NewSearchError(requestID, err.Error())
	}

	logger.Info().
		Str("request_id", requestID).
		Int("skills", len(parsed.Skills)).
		Int("matches", len(matches)).
		Msg("简历匹配流水线完成")

	return &MatchResult{
		RequestID: requestID,
		Parsed:    parsed,
		Profile:   profile,
		Matches:   matches,
	}, nil
}

// structureProfile 结构化画像，优先命中缓存
func (p *InsightProcessor) structureProfile(ctx context.Context, requestID, summary string) (*types.StructuredProfile, error) {
	if p.cache != nil {
		if cached, hit, err := p.cache.Get(ctx, summary); err == nil && hit {
			logger.Debug().Str("request_id", requestID).Msg("画像缓存命中")
			return cached, nil
		} else if err != nil {
			// 缓存故障不阻塞流水线
			logger.Warn().Err(err).Msg("画像缓存读取失败，回退到结构化调用")
		}
	}

	profile, err := p.structurer.Structure(ctx, summary)
	if err != nil {
		// StructuringError 原样上抛，API层按失败类别映射状态码
		var sErr *parser.StructuringError
		if errors.As(err, &sErr) {
			return nil, err
		}
		return nil, NewStructuringError(requestID, err.Error())
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, summary, profile); err != nil {
			logger.Warn().Err(err).Msg("画像缓存写入失败")
		}
	}
	return profile, nil
}
