package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"career-insight-go/internal/types"
	"career-insight-go/pkg/ratelimit"
)

// 画像结构化提示词模板，%s 为压缩后的简历摘要
const profileStructurePrompt = `You are an expert technical recruiter. Analyze the resume summary below and return a single JSON object with exactly these keys:

- "match_context": a 3-4 sentence professional overview of the candidate. Describe seniority, domain and strengths. Do NOT name specific technologies here.
- "hard_skills": array of technology names only (e.g. "Python", "Kubernetes"). No sentences.
- "domain_keywords": array of business/process domain keywords (e.g. "payments", "logistics", "b2b saas").
- "job_title": the candidate's most recent job title.
- "total_years_of_experience": integer, or null when it cannot be inferred.

Return ONLY the JSON object, no markdown, no commentary.

Example output:
{
  "match_context": "Seasoned backend engineer with a platform focus. Has led small teams and owned service reliability end to end. Comfortable across the full delivery lifecycle.",
  "hard_skills": ["Go", "PostgreSQL", "Kafka", "Docker"],
  "domain_keywords": ["fintech", "payments"],
  "job_title": "Senior Backend Engineer",
  "total_years_of_experience": 8
}

Resume summary:
%s`

// ProfileStructurer 通过LLM把简历摘要结构化为候选人画像
type ProfileStructurer struct {
	llmModel model.ToolCallingChatModel
	logger   *log.Logger
	policy   ratelimit.RetryPolicy
}

// ProfileStructurerOption 结构化器配置选项
type ProfileStructurerOption func(*ProfileStructurer)

// WithStructurerRetryPolicy 替换默认重试策略
func WithStructurerRetryPolicy(policy ratelimit.RetryPolicy) ProfileStructurerOption {
	return func(s *ProfileStructurer) { s.policy = policy }
}

// NewProfileStructurer 创建画像结构化器
func NewProfileStructurer(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...ProfileStructurerOption) *ProfileStructurer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &ProfileStructurer{
		llmModel: llmModel,
		logger:   logger,
		policy:   ratelimit.DefaultRetryPolicy(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Structure 执行一次画像结构化调用
// 限流错误按策略退避重试，重试耗尽后升级为 SERVICE_FAILURE
//（底层限流错误保留在 Err 中供调用方判别）；
// 其余上游错误立即返回 SERVICE_FAILURE；
// 输出无法解析时返回 PARSE_FAILURE 并在 Raw 中保留原始输出
func (s *ProfileStructurer) Structure(ctx context.Context, summaryText string) (*types.StructuredProfile, error) {
	if strings.TrimSpace(summaryText) == "" {
		return nil, &StructuringError{
			Kind: StructuringServiceFailure,
			Err:  fmt.Errorf("简历摘要为空"),
		}
	}

	prompt := fmt.Sprintf(profileStructurePrompt, summaryText)
	messages := []*schema.Message{
		schema.UserMessage(prompt),
	}

	var response *schema.Message
	err := s.policy.Do(ctx, func() error {
		var genErr error
		response, genErr = s.llmModel.Generate(ctx, messages)
		return genErr
	})

	if err != nil {
		// 走到这里时限流重试已经耗尽，统一升级为服务失败
		s.logger.Printf("结构化调用失败 [%s]: %v", StructuringServiceFailure, err)
		return nil, &StructuringError{Kind: StructuringServiceFailure, Err: err}
	}

	if response == nil || strings.TrimSpace(response.Content) == "" {
		return nil, &StructuringError{
			Kind: StructuringServiceFailure,
			Err:  fmt.Errorf("模型返回空响应"),
		}
	}

	profile, parseErr := parseProfileResponse(response.Content)
	if parseErr != nil {
		s.logger.Printf("结构化响应解析失败: %v。原始响应: %s", parseErr, response.Content)
		return nil, &StructuringError{
			Kind: StructuringParseFailure,
			Raw:  response.Content,
			Err:  parseErr,
		}
	}

	return profile, nil
}

// parseProfileResponse 从模型输出中提取并校验画像JSON
func parseProfileResponse(content string) (*types.StructuredProfile, error) {
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("无法从响应中提取有效的JSON")
	}

	var profile types.StructuredProfile
	if err := json.Unmarshal([]byte(jsonStr), &profile); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}

	// 画像至少要有概述或技能之一，否则视为无效输出
	if profile.SummaryText == "" && len(profile.HardSkills) == 0 {
		return nil, fmt.Errorf("画像缺少 match_context 与 hard_skills")
	}

	return &profile, nil
}

var jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// extractJSON 从模型输出中提取JSON片段
// 优先匹配 ```json 围栏，否则取第一个 '{' 到最后一个 '}' 之间的内容
func extractJSON(text string) string {
	if matches := jsonFenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
