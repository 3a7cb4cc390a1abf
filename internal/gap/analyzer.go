package gap

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"career-insight-go/internal/types"
)

// CelebrationMessage 候选人覆盖全部需求类别时的终态文案
// 此时不再发起学习路线图生成
const CelebrationMessage = "Congratulations! Your skills are highly aligned with market demands!\n\nYour current skills cover all the top demanded categories in the market. Keep enhancing your expertise and stay updated with the latest trends in your field."

// NONE 哨兵：模型认为没有任何类别匹配
const noneSentinel = "NONE"

// 类别归类提示词，%s 依次为类别清单和候选人技能
const categorizePrompt = `You are an expert skills analyst. Categorize these skills into these categories: [%s]
User's skills: [%s]
Return a comma-separated list of matching categories. If none match, return NONE.`

// Analyzer 技能差距分析器
// 把候选人技能归入需求最高的N个类别，缺口 = 需求类别 − 已覆盖类别
type Analyzer struct {
	llmModel   model.ToolCallingChatModel
	categories []types.SkillCategory // 已按需求量排名的完整类别表
	topN       int
	logger     *log.Logger
}

// NewAnalyzer 创建差距分析器
// categories 必须已按需求量降序排列（排名表的行序）
func NewAnalyzer(llmModel model.ToolCallingChatModel, categories []types.SkillCategory, topN int, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if topN <= 0 {
		topN = 10
	}
	return &Analyzer{
		llmModel:   llmModel,
		categories: categories,
		topN:       topN,
		logger:     logger,
	}
}

// DemandedCategories 返回需求最高的N个类别（含成员技能与需求量）
func (a *Analyzer) DemandedCategories() []types.SkillCategory {
	n := a.topN
	if n > len(a.categories) {
		n = len(a.categories)
	}
	out := make([]types.SkillCategory, n)
	copy(out, a.categories[:n])
	return out
}

// Analyze 执行一次差距分析
// 归类是闭合词表操作：模型返回的任何不在需求清单里的标签
// 都按归类失误丢弃，不计入覆盖也不计入缺口
func (a *Analyzer) Analyze(ctx context.Context, userSkills []string) (*types.GapReport, error) {
	if len(userSkills) == 0 {
		return nil, fmt.Errorf("候选人技能列表为空")
	}

	demanded := a.DemandedCategories()
	demandedLabels := make([]string, len(demanded))
	allowed := make(map[string]string, len(demanded)) // 小写 → 规范标签
	for i, c := range demanded {
		demandedLabels[i] = c.Label
		allowed[strings.ToLower(c.Label)] = c.Label
	}

	prompt := fmt.Sprintf(categorizePrompt,
		strings.Join(demandedLabels, ", "),
		strings.Join(userSkills, ", "))

	response, err := a.llmModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("技能归类调用失败: %w", err)
	}

	covered := a.parseCategories(response.Content, allowed)

	coveredSet := make(map[string]struct{}, len(covered))
	for _, c := range covered {
		coveredSet[c] = struct{}{}
	}

	// 缺口按需求排名顺序输出，保证结果确定
	missing := make([]string, 0, len(demandedLabels))
	for _, label := range demandedLabels {
		if _, ok := coveredSet[label]; !ok {
			missing = append(missing, label)
		}
	}

	return &types.GapReport{
		CandidateCategories: covered,
		DemandedCategories:  demandedLabels,
		MissingCategories:   missing,
	}, nil
}

// parseCategories 解析模型的逗号分隔输出并按闭合词表过滤
func (a *Analyzer) parseCategories(content string, allowed map[string]string) []string {
	content = strings.TrimSpace(content)
	if content == "" || strings.EqualFold(content, noneSentinel) {
		return []string{}
	}

	seen := make(map[string]struct{})
	var covered []string
	for _, raw := range strings.Split(content, ",") {
		label := strings.TrimSpace(raw)
		if label == "" || strings.EqualFold(label, noneSentinel) {
			continue
		}
		canonical, ok := allowed[strings.ToLower(label)]
		if !ok {
			a.logger.Printf("丢弃词表外的归类标签: %q", label)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		covered = append(covered, canonical)
	}

	if covered == nil {
		covered = []string{}
	}
	return covered
}
