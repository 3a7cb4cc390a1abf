package main

import (
	"context"
	"io"
	"log"
	"os"

	"career-insight-go/internal/cluster"
	"career-insight-go/internal/config"
	"career-insight-go/internal/logger"
	"career-insight-go/internal/parser"
	"career-insight-go/internal/storage"
)

// handleSkillTableCommand 技能需求排名表流程：
// 原始职位 → 画像 → 技能聚合 → 密度聚类 → LLM命名 → 排名表CSV
func handleSkillTableCommand(cfg *config.Config) {
	ctx := context.Background()

	outPath := *tablePath
	if outPath == "" {
		outPath = cfg.SkillTable.Path
	}
	if outPath == "" {
		log.Fatal("未指定排名表输出路径 (-table 或配置 skill_table.path)")
	}

	_, profiles := structurePostings(ctx, cfg)

	// 聚合全部硬技能，保留重复项作为需求频次依据
	var allSkills []string
	for _, profile := range profiles {
		allSkills = append(allSkills, profile.HardSkills...)
	}
	if len(allSkills) == 0 {
		log.Fatal("结构化结果中没有任何技能，无法生成排名表")
	}
	logger.Info().Int("skills", len(allSkills)).Msg("技能聚合完成")

	embedder, err := parser.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		log.Fatalf("初始化阿里云Embedder失败: %v", err)
	}

	var componentLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		componentLogger = log.New(os.Stderr, "[SkillTable] ", log.LstdFlags)
	} else {
		componentLogger = log.New(io.Discard, "", 0)
	}

	labeler := cluster.NewLabeler(embedder, newTaskModel(cfg, "cluster_label"), componentLogger)
	points, err := labeler.Label(ctx, allSkills)
	if err != nil {
		log.Fatalf("技能聚类失败: %v", err)
	}
	if points == nil {
		log.Fatal("去重后技能不足3个，无法聚类")
	}

	categories := cluster.BuildCategoryTable(allSkills, points)
	if err := storage.WriteCategoryTable(outPath, categories); err != nil {
		log.Fatalf("写入排名表失败: %v", err)
	}

	logger.Info().
		Int("categories", len(categories)).
		Str("path", outPath).
		Msg("技能需求排名表生成完成")
}
