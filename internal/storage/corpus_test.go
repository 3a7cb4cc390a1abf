package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-insight-go/internal/types"
)

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	content := `title,description,job_url,embedding
Backend Engineer,"Build services, own reliability",https://jobs.example.com/1,"[1.0, 0.0, 0.0]"
Data Engineer,Pipelines,https://jobs.example.com/2,"[0.0, 1.0, 0.0]"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	postings, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, postings, 2)

	assert.Equal(t, "Backend Engineer", postings[0].Title)
	assert.Equal(t, "Build services, own reliability", postings[0].Description)
	assert.Equal(t, "https://jobs.example.com/1", postings[0].URL)
	assert.Equal(t, []float64{1.0, 0.0, 0.0}, postings[0].Embedding)
}

func TestLoadCorpusMissingFile(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrCorpusLoad)
}

func TestLoadCorpusBadEmbedding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	content := "title,description,job_url,embedding\nX,Y,Z,not-a-vector\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadCorpus(path)
	assert.ErrorIs(t, err, ErrCorpusLoad)
}

func TestWriteCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	in := []types.JobPosting{
		{Title: "SRE", Description: "Keep it up", URL: "https://jobs.example.com/3", Embedding: []float64{0.5, 0.5}},
	}
	require.NoError(t, WriteCorpus(path, in))

	out, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestWriteCorpusReportsFlushError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("依赖 /dev/full 设备")
	}
	// /dev/full 上的写入返回 ENOSPC：截断的快照必须报错而不是静默成功
	err := WriteCorpus("/dev/full", []types.JobPosting{
		{Title: "SRE", Description: "Keep it up", URL: "https://jobs.example.com/3", Embedding: []float64{0.5, 0.5}},
	})
	require.Error(t, err)
}

func TestWriteCategoryTableReportsFlushError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("依赖 /dev/full 设备")
	}
	err := WriteCategoryTable("/dev/full", []types.SkillCategory{
		{Label: "Cloud Platforms", DemandCount: 120, MemberSkills: []string{"AWS"}},
	})
	require.Error(t, err)
}

func TestLoadCategoryTableRanksByRowOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked.csv")
	content := `final_label,count,original_skills
Cloud Platforms,120,"AWS, Azure, GCP"
Backend Development,95,"Go, Java"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	categories, err := LoadCategoryTable(path)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	assert.Equal(t, "Cloud Platforms", categories[0].Label)
	assert.Equal(t, 1, categories[0].Rank)
	assert.Equal(t, 120, categories[0].DemandCount)
	assert.Equal(t, []string{"AWS", "Azure", "GCP"}, categories[0].MemberSkills)
	assert.Equal(t, 2, categories[1].Rank)
}

func TestLoadCategoryTableBadCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked.csv")
	content := "final_label,count,original_skills\nX,many,\"Go\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadCategoryTable(path)
	assert.ErrorIs(t, err, ErrCategoryTableLoad)
}
