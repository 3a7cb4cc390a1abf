package types

// SectionName 表示简历章节的规范名称
type SectionName string

const (
	// SectionContact 联系方式章节
	SectionContact SectionName = "contact"
	// SectionSummary 个人简介章节
	SectionSummary SectionName = "summary"
	// SectionExperience 工作经历章节
	SectionExperience SectionName = "experience"
	// SectionEducation 教育背景章节
	SectionEducation SectionName = "education"
	// SectionSkills 技能章节
	SectionSkills SectionName = "skills"
	// SectionCertifications 证书章节
	SectionCertifications SectionName = "certifications"
	// SectionProjects 项目章节
	SectionProjects SectionName = "projects"
	// SectionAchievements 获奖章节
	SectionAchievements SectionName = "achievements"
)

// Section 简历中一个命名的、不重叠的文本区间
// Start/End 是基于原始文本的字节偏移，区间为 [Start, End)
type Section struct {
	Name  SectionName // 章节名称
	Start int         // 起始偏移
	End   int         // 结束偏移（开区间）
	Text  string      // 规范化后的章节内容
}

// ContactFacts 从简历中提取的联系方式，每个字段独立可缺省
type ContactFacts struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// Education 一条学历记录
type Education struct {
	Degree string `json:"degree"`
	Field  string `json:"field,omitempty"`
}

// StructuredProfile 结构化服务（LLM）返回的候选人画像
// 一旦返回即视为不可变
type StructuredProfile struct {
	// 3-4句的专业概述，不含具体技术名词
	SummaryText string `json:"match_context"`

	// 硬技能列表，只含技术名本身
	HardSkills []string `json:"hard_skills"`

	// 业务/流程领域关键词
	DomainKeywords []string `json:"domain_keywords"`

	// 最近的职位头衔
	JobTitle string `json:"job_title"`

	// 总工作年限；无法推断时为 null
	TotalYearsOfExperience *int `json:"total_years_of_experience"`
}

// IsZero 判断画像是否为哨兵空记录（批处理失败降级时使用）
func (p *StructuredProfile) IsZero() bool {
	return p.SummaryText == "" && len(p.HardSkills) == 0 &&
		len(p.DomainKeywords) == 0 && p.JobTitle == "" && p.TotalYearsOfExperience == nil
}

// JobPosting 语料库中的一条职位记录，Embedding 已归一化为单位向量
type JobPosting struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Embedding   []float64 `json:"-"`
}

// JobMatch 一条检索结果：职位加上与查询的余弦相似度
type JobMatch struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	Score       float64 `json:"score"`
}

// SkillCategory 按市场需求排名的技能类别
type SkillCategory struct {
	Label        string   `json:"label"`
	MemberSkills []string `json:"member_skills"`
	Rank         int      `json:"rank"`
	DemandCount  int      `json:"demand_count"`
}

// GapReport 技能差距报告：missing = demanded − candidate
type GapReport struct {
	CandidateCategories []string `json:"candidate_categories"`
	DemandedCategories  []string `json:"demanded_categories"`
	MissingCategories   []string `json:"missing_categories"`
}

// Covered 候选人是否已覆盖全部需求类别（庆祝终态）
func (r *GapReport) Covered() bool {
	return len(r.MissingCategories) == 0
}

// SkillClusterPoint 一个技能在聚类结果中的位置
// Cluster 为 -1 表示噪声点，Category 固定为 "Uncategorized"
type SkillClusterPoint struct {
	Skill    string  `json:"skill"`
	Cluster  int     `json:"cluster"`
	Category string  `json:"category"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// ResumeParseResult 本地（非LLM）解析的汇总结果
type ResumeParseResult struct {
	Contact         ContactFacts            `json:"contact_info"`
	Sections        map[SectionName]Section `json:"-"`
	Skills          []string                `json:"skills"`
	Education       []Education             `json:"education"`
	ExperienceYears *int                    `json:"estimated_experience_years"`
	WordCount       int                     `json:"word_count"`
}
