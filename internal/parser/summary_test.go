package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"career-insight-go/internal/types"
)

func TestBuildAnalysisSummaryIncludesKeyFacts(t *testing.T) {
	parsed := ParseResume(sampleResume)
	summary := BuildAnalysisSummary(parsed)

	assert.Contains(t, summary, "Email: john.doe@example.com")
	assert.Contains(t, summary, "SKILLS:")
	assert.Contains(t, summary, "EXPERIENCE:")
}

func TestBuildAnalysisSummaryCapsLength(t *testing.T) {
	long := strings.Repeat("built and shipped large systems at scale ", 400)
	parsed := &types.ResumeParseResult{
		Skills: []string{"Go", "Python"},
		Sections: map[types.SectionName]types.Section{
			types.SectionExperience: {Name: types.SectionExperience, Text: long},
			types.SectionSummary:    {Name: types.SectionSummary, Text: long},
		},
	}

	summary := BuildAnalysisSummary(parsed)
	// 上限3000字符，外加截断标记
	assert.LessOrEqual(t, len(summary), maxSummaryChars+len("\n...[Content truncated for brevity]"))
}

func TestBuildAnalysisSummaryLimitsSkillCount(t *testing.T) {
	skills := make([]string, 30)
	for i := range skills {
		skills[i] = strings.Repeat("x", 3) + string(rune('a'+i))
	}
	parsed := &types.ResumeParseResult{Skills: skills}

	summary := BuildAnalysisSummary(parsed)
	assert.Contains(t, summary, skills[19])
	assert.NotContains(t, summary, skills[20])
}
