package main

import (
	"context"
	"log"
	"time"

	"career-insight-go/internal/config"
	"career-insight-go/internal/enrich"
	"career-insight-go/internal/logger"
	"career-insight-go/internal/matcher"
	"career-insight-go/internal/parser"
	"career-insight-go/internal/storage"
	"career-insight-go/internal/types"
	"career-insight-go/pkg/ratelimit"
)

// 单次嵌入请求的最大文本数，对齐DashScope批量上限
const embedBatchSize = 10

// handleEnrichCommand 富集流程：原始职位 → 画像 → 向量 → 语料库快照
func handleEnrichCommand(cfg *config.Config) {
	ctx := context.Background()

	outPath := *outputPath
	if outPath == "" {
		outPath = cfg.Enricher.OutputPath
	}
	if outPath == "" {
		log.Fatal("未指定语料库输出路径 (-out 或配置 enricher.output_path)")
	}

	postings, profiles := structurePostings(ctx, cfg)

	embedder, err := parser.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		log.Fatalf("初始化阿里云Embedder失败: %v", err)
	}

	// 失败哨兵没有可嵌入的概述，从语料库中剔除
	enriched := make([]types.JobPosting, 0, len(postings))
	summaries := make([]string, 0, len(postings))
	dropped := 0
	for i, profile := range profiles {
		if profile.IsZero() || profile.SummaryText == "" {
			dropped++
			continue
		}
		enriched = append(enriched, postings[i])
		summaries = append(summaries, profile.SummaryText)
	}

	for start := 0; start < len(summaries); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(summaries) {
			end = len(summaries)
		}
		vectors, err := embedder.EmbedStrings(ctx, summaries[start:end])
		if err != nil {
			log.Fatalf("批量嵌入失败 (第 %d-%d 条): %v", start, end-1, err)
		}
		if len(vectors) != end-start {
			log.Fatalf("嵌入结果数量不符: 期望 %d 实际 %d", end-start, len(vectors))
		}
		for i, vec := range vectors {
			enriched[start+i].Embedding = matcher.Normalize(vec)
		}
	}

	if err := storage.WriteCorpus(outPath, enriched); err != nil {
		log.Fatalf("写入语料库失败: %v", err)
	}

	logger.Info().
		Int("total", len(postings)).
		Int("enriched", len(enriched)).
		Int("dropped", dropped).
		Str("path", outPath).
		Msg("语料库富集完成")
}

// structurePostings 加载原始职位并批量结构化，返回与职位对齐的画像切片
func structurePostings(ctx context.Context, cfg *config.Config) ([]types.JobPosting, []types.StructuredProfile) {
	postings, err := storage.LoadRawPostings(*inputPath)
	if err != nil {
		log.Fatalf("加载原始职位数据失败: %v", err)
	}
	if len(postings) == 0 {
		log.Fatal("原始职位数据为空")
	}

	enricherWorkers := *workers
	if enricherWorkers <= 0 {
		enricherWorkers = cfg.Enricher.Workers
	}

	// 配置中的 max_attempts 是总尝试数，换算为首次之外的重试数
	batchEnricher := enrich.NewEnricher(newStructurer(cfg),
		enrich.WithWorkers(enricherWorkers),
		enrich.WithRetryPolicy(ratelimit.RetryPolicy{
			MaxRetries: cfg.Enricher.MaxAttempts - 1,
			BaseDelay:  time.Duration(cfg.Enricher.MinWaitSeconds * float64(time.Second)),
			MaxDelay:   time.Duration(cfg.Enricher.MaxWaitSeconds * float64(time.Second)),
			Classify:   ratelimit.TransientClassifier,
		}))

	texts := make([]string, len(postings))
	for i, p := range postings {
		texts[i] = p.Description
	}

	logger.Info().Int("count", len(texts)).Int("workers", enricherWorkers).Msg("开始批量结构化")
	return postings, batchEnricher.StructureAll(ctx, texts)
}
