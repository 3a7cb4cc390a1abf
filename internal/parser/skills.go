package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"career-insight-go/internal/types"
)

// 闭合技能词表：只有出现在这里的词才会被全文扫描命中
// 词表外的技能依赖技能章节启发式补充
var commonTechSkills = []string{
	"python", "java", "javascript", "typescript", "react", "angular", "vue",
	"node.js", "django", "flask", "fastapi", "spring", "docker", "kubernetes",
	"aws", "azure", "gcp", "terraform", "jenkins", "git", "ci/cd", "sql",
	"mongodb", "postgresql", "redis", "kafka", "microservices", "rest api",
	"graphql", "machine learning", "ai", "data science", "agile", "scrum",
}

var (
	// 技能章节启发式：标题后捕获到空行/新大写行/文本结尾
	skillsSectionRe = regexp.MustCompile(`(?is)(?:skills?|technical skills?|competencies)[:\s]+(.*?)(?:\n\n|\n[A-Z]|$)`)
	skillSplitRe    = regexp.MustCompile(`[,|•●▪\n]`)

	// 显式年限表述优先于年份区间估算
	explicitYearsRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of)?\s*experience`),
		regexp.MustCompile(`(?i)experience[:\s]+(\d+)\+?\s*years?`),
	}
	calendarYearRe = regexp.MustCompile(`(20\d{2}|19\d{2})`)

	emailRe     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe     = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	urlRe       = regexp.MustCompile(`https?://(?:www\.)?[-a-zA-Z0-9@:%._\+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b(?:[-a-zA-Z0-9()@:%_\+.~#?&/=]*)`)
	linkedInRe  = regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`)
	gitHubRe    = regexp.MustCompile(`(?i)github\.com/[\w-]+`)
	educationRe = regexp.MustCompile(`(?is)(?:education|academic)[:\s]+(.*?)(?:\n\n[A-Z]|$)`)

	degreeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(Bachelor|Master|PhD|B\.S\.|M\.S\.|B\.A\.|M\.A\.|MBA)(?:\s+(?:of|in))?\s+([^,\n]+)`),
		regexp.MustCompile(`(?i)(Associate)(?:\s+(?:of|in))?\s+([^,\n]+)`),
	}
)

// ExtractSkills 抽取技能列表
// 两条来源：闭合词表的全文命中（标题化大小写），
// 以及技能章节按分隔符切出的词条（保留原样）；
// 结果按首次出现顺序去重，大小写不敏感
func ExtractSkills(text string) []string {
	textLower := strings.ToLower(text)
	var found []string

	for _, skill := range commonTechSkills {
		if strings.Contains(textLower, skill) {
			found = append(found, titleCase(skill))
		}
	}

	if m := skillsSectionRe.FindStringSubmatch(text); m != nil {
		for _, candidate := range skillSplitRe.Split(m[1], -1) {
			candidate = strings.TrimSpace(candidate)
			if len(candidate) > 2 && len(candidate) < 50 {
				found = append(found, candidate)
			}
		}
	}

	seen := make(map[string]struct{}, len(found))
	unique := make([]string, 0, len(found))
	for _, skill := range found {
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, skill)
	}
	return unique
}

// titleCase 词表命中项的规范形式：任何非字母之后的字母大写，其余小写
// "ci/cd" → "Ci/Cd"，"node.js" → "Node.Js"
func titleCase(s string) string {
	runes := []rune(s)
	prevLetter := false
	for i, r := range runes {
		if unicode.IsLetter(r) {
			if prevLetter {
				runes[i] = unicode.ToLower(r)
			} else {
				runes[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(runes)
}

// ExtractExperienceYears 估算工作年限
// 优先匹配显式表述（"5 years of experience"），
// 否则退化为全文年份区间 max-min；两者都没有时返回 nil
func ExtractExperienceYears(text string) *int {
	for _, re := range explicitYearsRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return &n
			}
		}
	}

	years := calendarYearRe.FindAllString(text, -1)
	if len(years) > 0 {
		minYear, maxYear := 9999, 0
		for _, y := range years {
			n, err := strconv.Atoi(y)
			if err != nil {
				continue
			}
			if n < minYear {
				minYear = n
			}
			if n > maxYear {
				maxYear = n
			}
		}
		if maxYear >= minYear {
			span := maxYear - minYear
			return &span
		}
	}

	return nil
}

// ExtractContact 抽取联系方式，各字段独立缺省
func ExtractContact(text string) types.ContactFacts {
	var contact types.ContactFacts

	if m := emailRe.FindString(text); m != "" {
		contact.Email = m
	}
	if m := phoneRe.FindString(text); m != "" {
		contact.Phone = m
	}
	if m := linkedInRe.FindString(text); m != "" {
		contact.LinkedIn = m
	}
	if m := gitHubRe.FindString(text); m != "" {
		contact.GitHub = m
	}

	// 作品集：第一个既非 linkedin 也非 github 的URL
	for _, url := range urlRe.FindAllString(text, -1) {
		lower := strings.ToLower(url)
		if !strings.Contains(lower, "linkedin") && !strings.Contains(lower, "github") {
			contact.Portfolio = url
			break
		}
	}

	return contact
}

// ExtractEducation 从教育章节抽取学历记录
func ExtractEducation(text string) []types.Education {
	var education []types.Education

	m := educationRe.FindStringSubmatch(text)
	if m == nil {
		return education
	}
	eduText := m[1]

	for _, re := range degreeRes {
		for _, match := range re.FindAllStringSubmatch(eduText, -1) {
			record := types.Education{
				Degree: strings.TrimSpace(match[0]),
			}
			if len(match) > 2 {
				record.Field = strings.TrimSpace(match[2])
			}
			education = append(education, record)
		}
	}

	return education
}

// ParseResume 本地（非LLM）解析入口：章节、联系方式、技能、
// 学历与年限估算的汇总
func ParseResume(rawText string) *types.ResumeParseResult {
	cleaned := CleanText(rawText)

	return &types.ResumeParseResult{
		Contact:         ExtractContact(rawText),
		Sections:        Sectionize(rawText),
		Skills:          ExtractSkills(rawText),
		Education:       ExtractEducation(rawText),
		ExperienceYears: ExtractExperienceYears(rawText),
		WordCount:       len(strings.Fields(cleaned)),
	}
}
