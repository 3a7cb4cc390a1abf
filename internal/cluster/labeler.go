package cluster

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"career-insight-go/internal/types"
)

// UncategorizedLabel 噪声点的固定类别
const UncategorizedLabel = "Uncategorized"

// 单次命名调用最多携带的簇成员数
const maxSkillsPerNaming = 10

// 簇命名提示词，%s 为簇成员技能清单
const clusterNamePrompt = `You are an expert technical recruiter. Based on the following skills, provide ONE concise category name (2-3 words max).
Skills: [%s]
Respond with ONLY the category name.`

// 密度聚类的邻域半径（欧氏距离，作用于单位化的技能向量）
const defaultEps = 0.75

// Labeler 技能聚类与簇命名
// 少于3个去重技能时不产出任何聚类结果
type Labeler struct {
	embedder embedding.Embedder
	llmModel model.ToolCallingChatModel
	eps      float64
	logger   *log.Logger
}

// LabelerOption 聚类器配置选项
type LabelerOption func(*Labeler)

// WithEps 覆盖密度聚类的邻域半径
func WithEps(eps float64) LabelerOption {
	return func(l *Labeler) { l.eps = eps }
}

// NewLabeler 创建技能聚类器
func NewLabeler(embedder embedding.Embedder, llmModel model.ToolCallingChatModel, logger *log.Logger, options ...LabelerOption) *Labeler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	l := &Labeler{
		embedder: embedder,
		llmModel: llmModel,
		eps:      defaultEps,
		logger:   logger,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Label 对技能列表做密度聚类并为每个簇生成类别名
// 去重后不足3个技能时返回 (nil, nil)；
// min_cluster_size = max(2, n/10)；噪声点类别固定为 Uncategorized；
// 二维坐标仅用于可视化，不参与簇归属
func (l *Labeler) Label(ctx context.Context, skills []string) ([]types.SkillClusterPoint, error) {
	unique := dedupeSkills(skills)
	if len(unique) < 3 {
		return nil, nil
	}

	embeddings, err := l.embedder.EmbedStrings(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("技能向量化失败: %w", err)
	}
	if len(embeddings) != len(unique) {
		return nil, fmt.Errorf("向量数量不符: 期望 %d, 得到 %d", len(unique), len(embeddings))
	}

	minClusterSize := len(unique) / 10
	if minClusterSize < 2 {
		minClusterSize = 2
	}

	labels := densityCluster(embeddings, l.eps, minClusterSize)
	coords := project2D(embeddings)

	names := l.nameClusters(ctx, unique, labels)

	points := make([]types.SkillClusterPoint, len(unique))
	for i, skill := range unique {
		category := UncategorizedLabel
		if labels[i] != Noise {
			category = names[labels[i]]
		}
		points[i] = types.SkillClusterPoint{
			Skill:    skill,
			Cluster:  labels[i],
			Category: category,
			X:        coords[i][0],
			Y:        coords[i][1],
		}
	}
	return points, nil
}

// nameClusters 为每个非噪声簇调用一次LLM命名
// 命名失败不让整个聚类失败，回退为 "Cluster N"
func (l *Labeler) nameClusters(ctx context.Context, skills []string, labels []int) map[int]string {
	members := make(map[int][]string)
	for i, label := range labels {
		if label == Noise {
			continue
		}
		members[label] = append(members[label], skills[i])
	}

	ids := make([]int, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	names := make(map[int]string, len(members))
	for _, id := range ids {
		sample := members[id]
		if len(sample) > maxSkillsPerNaming {
			sample = sample[:maxSkillsPerNaming]
		}

		prompt := fmt.Sprintf(clusterNamePrompt, strings.Join(sample, ", "))
		response, err := l.llmModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
		if err != nil || response == nil || strings.TrimSpace(response.Content) == "" {
			l.logger.Printf("簇 %d 命名失败，使用回退名: %v", id, err)
			names[id] = fmt.Sprintf("Cluster %d", id)
			continue
		}
		names[id] = strings.TrimSpace(response.Content)
	}
	return names
}

// dedupeSkills 按首次出现顺序去重（精确匹配）
func dedupeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	var unique []string
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

// BuildCategoryTable 从聚类结果构建技能类别需求表
// allSkills 是未去重的原始技能流（来自整个语料库），
// 类别需求量 = 其成员技能在原始流中的出现总次数；
// 噪声类别不进表；结果按需求量降序、同量按类别名升序
func BuildCategoryTable(allSkills []string, points []types.SkillClusterPoint) []types.SkillCategory {
	frequency := make(map[string]int, len(allSkills))
	for _, s := range allSkills {
		frequency[strings.TrimSpace(s)]++
	}

	byCategory := make(map[string][]string)
	counts := make(map[string]int)
	for _, p := range points {
		if p.Category == UncategorizedLabel {
			continue
		}
		byCategory[p.Category] = append(byCategory[p.Category], p.Skill)
		counts[p.Category] += frequency[p.Skill]
	}

	categories := make([]types.SkillCategory, 0, len(byCategory))
	for label, skills := range byCategory {
		categories = append(categories, types.SkillCategory{
			Label:        label,
			MemberSkills: skills,
			DemandCount:  counts[label],
		})
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].DemandCount != categories[j].DemandCount {
			return categories[i].DemandCount > categories[j].DemandCount
		}
		return categories[i].Label < categories[j].Label
	})
	for i := range categories {
		categories[i].Rank = i + 1
	}
	return categories
}
