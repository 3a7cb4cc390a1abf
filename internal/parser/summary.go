package parser

import (
	"fmt"
	"strings"

	"career-insight-go/internal/types"
)

const (
	// 发给结构化服务的摘要长度上限（字符）
	maxSummaryChars = 3000
	// 摘要中最多保留的技能数
	maxSummarySkills = 20
	// 经历章节截断长度
	maxExperienceChars = 1500
	// 简介章节截断长度
	maxProfileChars = 500
)

// BuildAnalysisSummary 把解析结果压缩成一段提示词负载
// 只保留对结构化最有价值的内容，控制 token 消耗
func BuildAnalysisSummary(parsed *types.ResumeParseResult) string {
	var parts []string

	if parsed.Contact.Email != "" {
		parts = append(parts, fmt.Sprintf("Email: %s", parsed.Contact.Email))
	}

	if len(parsed.Skills) > 0 {
		skills := parsed.Skills
		if len(skills) > maxSummarySkills {
			skills = skills[:maxSummarySkills]
		}
		parts = append(parts, fmt.Sprintf("\nSKILLS: %s", strings.Join(skills, ", ")))
	}

	if exp, ok := parsed.Sections[types.SectionExperience]; ok {
		expText := exp.Text
		if len(expText) > maxExperienceChars {
			expText = expText[:maxExperienceChars] + "..."
		}
		parts = append(parts, fmt.Sprintf("\nEXPERIENCE:\n%s", expText))
	}

	if len(parsed.Education) > 0 {
		degrees := make([]string, 0, len(parsed.Education))
		for _, edu := range parsed.Education {
			degrees = append(degrees, edu.Degree)
		}
		parts = append(parts, fmt.Sprintf("\nEDUCATION: %s", strings.Join(degrees, " | ")))
	}

	if sum, ok := parsed.Sections[types.SectionSummary]; ok {
		sumText := sum.Text
		if len(sumText) > maxProfileChars {
			sumText = sumText[:maxProfileChars] + "..."
		}
		parts = append(parts, fmt.Sprintf("\nPROFESSIONAL SUMMARY:\n%s", sumText))
	}

	full := strings.Join(parts, "\n")
	if len(full) > maxSummaryChars {
		full = full[:maxSummaryChars] + "\n...[Content truncated for brevity]"
	}
	return full
}
