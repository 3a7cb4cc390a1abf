package cluster

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-insight-go/internal/types"
)

// stubEmbedder 按预设表返回技能向量
type stubEmbedder struct {
	vectors map[string][]float64
}

func (e *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := e.vectors[t]
		if !ok {
			return nil, fmt.Errorf("无预设向量: %s", t)
		}
		out[i] = v
	}
	return out, nil
}

// namingModel 根据提示词内容返回簇名
type namingModel struct {
	prompts []string
}

func (m *namingModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	prompt := messages[len(messages)-1].Content
	m.prompts = append(m.prompts, prompt)
	if strings.Contains(prompt, "react") {
		return schema.AssistantMessage("Frontend Development", nil), nil
	}
	return schema.AssistantMessage("Cloud Infrastructure", nil), nil
}

func (m *namingModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("不支持流式输出")
}

func (m *namingModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func TestLabelTooFewSkills(t *testing.T) {
	l := NewLabeler(&stubEmbedder{}, &namingModel{}, nil)

	points, err := l.Label(context.Background(), []string{"go", "python"})
	require.NoError(t, err)
	assert.Nil(t, points, "少于3个技能不应产出聚类结果")

	// 去重后少于3个同样不产出
	points, err = l.Label(context.Background(), []string{"go", "go", "python"})
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestLabelTwoClustersAndNoise(t *testing.T) {
	vectors := map[string][]float64{
		"react":      {1.0, 0.0},
		"vue":        {0.95, 0.05},
		"angular":    {0.9, 0.1},
		"aws":        {0.0, 1.0},
		"terraform":  {0.05, 0.95},
		"kubernetes": {0.1, 0.9},
		"fortran":    {-1.0, -1.0}, // 孤立点
	}
	l := NewLabeler(&stubEmbedder{vectors: vectors}, &namingModel{}, nil)

	points, err := l.Label(context.Background(),
		[]string{"react", "vue", "angular", "aws", "terraform", "kubernetes", "fortran"})
	require.NoError(t, err)
	require.Len(t, points, 7)

	byskill := make(map[string]types.SkillClusterPoint)
	for _, p := range points {
		byskill[p.Skill] = p
	}

	assert.Equal(t, "Frontend Development", byskill["react"].Category)
	assert.Equal(t, byskill["react"].Cluster, byskill["vue"].Cluster)
	assert.Equal(t, byskill["react"].Cluster, byskill["angular"].Cluster)

	assert.Equal(t, "Cloud Infrastructure", byskill["aws"].Category)
	assert.Equal(t, byskill["aws"].Cluster, byskill["terraform"].Cluster)
	assert.NotEqual(t, byskill["react"].Cluster, byskill["aws"].Cluster)

	assert.Equal(t, Noise, byskill["fortran"].Cluster)
	assert.Equal(t, UncategorizedLabel, byskill["fortran"].Category)
}

func TestLabelNamingPromptCapsMembers(t *testing.T) {
	vectors := make(map[string][]float64)
	skills := make([]string, 12)
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("skill%02d", i)
		skills[i] = name
		vectors[name] = []float64{1.0, float64(i) * 0.001}
	}
	model := &namingModel{}
	l := NewLabeler(&stubEmbedder{vectors: vectors}, model, nil)

	_, err := l.Label(context.Background(), skills)
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "skill09")
	assert.NotContains(t, model.prompts[0], "skill10", "命名提示词最多携带10个成员")
}

func TestLabelDeterministicProjection(t *testing.T) {
	vectors := map[string][]float64{
		"a": {1.0, 0.0, 0.2},
		"b": {0.9, 0.1, 0.1},
		"c": {0.0, 1.0, 0.4},
		"d": {0.1, 0.9, 0.3},
	}
	l := NewLabeler(&stubEmbedder{vectors: vectors}, &namingModel{}, nil)

	first, err := l.Label(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	second, err := l.Label(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)

	assert.Equal(t, first, second, "同一输入的二维坐标必须完全一致")
}

func TestBuildCategoryTable(t *testing.T) {
	points := []types.SkillClusterPoint{
		{Skill: "aws", Cluster: 0, Category: "Cloud"},
		{Skill: "gcp", Cluster: 0, Category: "Cloud"},
		{Skill: "go", Cluster: 1, Category: "Backend"},
		{Skill: "cobol", Cluster: Noise, Category: UncategorizedLabel},
	}
	// aws 出现3次，gcp 1次，go 2次，cobol 5次（噪声不进表）
	allSkills := []string{"aws", "aws", "aws", "gcp", "go", "go",
		"cobol", "cobol", "cobol", "cobol", "cobol"}

	table := BuildCategoryTable(allSkills, points)
	require.Len(t, table, 2)

	assert.Equal(t, "Cloud", table[0].Label)
	assert.Equal(t, 4, table[0].DemandCount)
	assert.Equal(t, 1, table[0].Rank)
	assert.Equal(t, []string{"aws", "gcp"}, table[0].MemberSkills)

	assert.Equal(t, "Backend", table[1].Label)
	assert.Equal(t, 2, table[1].DemandCount)
	assert.Equal(t, 2, table[1].Rank)
}
