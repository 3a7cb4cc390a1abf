package parser

import (
	"regexp"
	"sort"
	"strings"

	"career-insight-go/internal/types"
)

// sectionRule 一条章节识别规则：正则命中即产生一个章节边界
type sectionRule struct {
	name    types.SectionName
	pattern *regexp.Regexp
}

// 章节识别规则表（按声明顺序）
// 已知局限：正文中出现的关键词（如一句话里的 "experience"）同样会
// 被当作边界，保持该行为不做修正
var sectionRules = []sectionRule{
	{types.SectionContact, regexp.MustCompile(`(?i)(contact|email|phone|address|linkedin|github)`)},
	{types.SectionSummary, regexp.MustCompile(`(?i)(summary|profile|objective|about)`)},
	{types.SectionExperience, regexp.MustCompile(`(?i)(experience|employment|work history|professional experience)`)},
	{types.SectionEducation, regexp.MustCompile(`(?i)(education|academic|degree|university|college)`)},
	{types.SectionSkills, regexp.MustCompile(`(?i)(skills|technical skills|competencies|expertise|technologies)`)},
	{types.SectionCertifications, regexp.MustCompile(`(?i)(certifications?|licenses?|credentials)`)},
	{types.SectionProjects, regexp.MustCompile(`(?i)(projects?|portfolio)`)},
	{types.SectionAchievements, regexp.MustCompile(`(?i)(achievements?|awards?|honors?|accomplishments?)`)},
}

// 文本规范化用的正则
var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	bulletGlyphRe  = regexp.MustCompile(`[•●▪▫■□◆◇○◉◊]`)
	multiPeriodRe  = regexp.MustCompile(`\.{2,}`)
	quoteNormalize = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// CleanText 规范化简历文本：折叠空白、去除项目符号、
// 折叠连续句点、归一化弯引号
func CleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = bulletGlyphRe.ReplaceAllString(text, "")
	text = multiPeriodRe.ReplaceAllString(text, "")
	text = quoteNormalize.Replace(text)
	return strings.TrimSpace(text)
}

// sectionBoundary 一个章节边界：某条规则在文本中的一次命中
type sectionBoundary struct {
	start int
	name  types.SectionName
}

// Sectionize 把简历原文切分为命名章节
// 每条规则的所有命中位置都产生边界；边界按位置排序后，
// 每个章节的内容从其边界延伸到下一个边界（或文本末尾）；
// 同名章节只保留最先出现的那一个
func Sectionize(text string) map[types.SectionName]types.Section {
	sections := make(map[types.SectionName]types.Section)

	var boundaries []sectionBoundary
	for _, rule := range sectionRules {
		for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
			boundaries = append(boundaries, sectionBoundary{start: loc[0], name: rule.name})
		}
	}

	// 稳定排序：位置相同时保持规则表顺序
	sort.SliceStable(boundaries, func(i, j int) bool {
		return boundaries[i].start < boundaries[j].start
	})

	for i, b := range boundaries {
		end := len(text)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].start
		}

		if _, exists := sections[b.name]; exists {
			continue // 同名章节首个命中优先
		}

		sections[b.name] = types.Section{
			Name:  b.name,
			Start: b.start,
			End:   end,
			Text:  CleanText(text[b.start:end]),
		}
	}

	return sections
}
