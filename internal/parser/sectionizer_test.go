package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-insight-go/internal/types"
)

const sampleResume = `John Doe
Email: john.doe@example.com
Phone: 555-123-4567

SUMMARY
Backend engineer focused on distributed systems.

EXPERIENCE
Acme Corp, Senior Engineer, 2019 - 2023
Built payment services in Go.

EDUCATION
Bachelor of Science in Computer Science

SKILLS
Go, Python, Docker, Kubernetes
`

func TestSectionizeFindsNamedSections(t *testing.T) {
	sections := Sectionize(sampleResume)

	for _, name := range []types.SectionName{
		types.SectionContact,
		types.SectionSummary,
		types.SectionExperience,
		types.SectionEducation,
		types.SectionSkills,
	} {
		_, ok := sections[name]
		assert.True(t, ok, "应识别出章节 %s", name)
	}
}

func TestSectionizeNonOverlapping(t *testing.T) {
	sections := Sectionize(sampleResume)
	require.NotEmpty(t, sections)

	// 任意两个章节的 [Start, End) 区间不得重叠
	list := make([]types.Section, 0, len(sections))
	for _, s := range sections {
		list = append(list, s)
		assert.Less(t, s.Start, s.End, "章节 %s 区间非法", s.Name)
	}
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			a, b := list[i], list[j]
			overlap := a.Start < b.End && b.Start < a.End
			assert.False(t, overlap, "章节 %s 与 %s 重叠", a.Name, b.Name)
		}
	}
}

func TestSectionizeFirstHeaderWins(t *testing.T) {
	// "skills" 出现两次：内容必须来自首次出现的位置
	text := "SKILLS\nGo, Rust\n\nOTHER\nmore text skills mentioned again here\ntrailing"
	sections := Sectionize(text)

	skills, ok := sections[types.SectionSkills]
	require.True(t, ok)
	assert.Equal(t, 0, skills.Start)
	assert.Contains(t, skills.Text, "Go, Rust")
}

func TestSectionizeEmptyText(t *testing.T) {
	assert.Empty(t, Sectionize(""))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"折叠空白", "a  b\n\nc\t d", "a b c d"},
		{"去除项目符号", "• Go ● Python ▪ SQL", "Go  Python  SQL"},
		{"折叠连续句点", "done....next", "donenext"},
		{"归一化弯引号", "“quoted” and ‘single’", `"quoted" and 'single'`},
		{"首尾修剪", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}
