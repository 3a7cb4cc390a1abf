package processor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-insight-go/internal/matcher"
	"career-insight-go/internal/parser"
	"career-insight-go/internal/types"
)

const testResume = `Jane Doe
Email: jane@example.com

SUMMARY
Backend engineer with 5 years of experience building services.

EXPERIENCE
Acme Corp, built payment APIs in Go and Python with Docker.

SKILLS
Go, Python, Docker, Kubernetes
`

type fakeStructurer struct {
	profile *types.StructuredProfile
	err     error
	calls   int
}

func (f *fakeStructurer) Structure(ctx context.Context, summaryText string) (*types.StructuredProfile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeEmbedder struct {
	vector []float64
	err    error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

type memoryCache struct {
	store map[string]*types.StructuredProfile
}

func (m *memoryCache) Get(ctx context.Context, summaryText string) (*types.StructuredProfile, bool, error) {
	p, ok := m.store[summaryText]
	return p, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, summaryText string, profile *types.StructuredProfile) error {
	m.store[summaryText] = profile
	return nil
}

func newTestIndex(t *testing.T) *matcher.EmbeddingIndex {
	t.Helper()
	idx, err := matcher.NewEmbeddingIndex([]types.JobPosting{
		{Title: "Backend Engineer", URL: "u/1", Embedding: []float64{1, 0, 0}},
		{Title: "Data Engineer", URL: "u/2", Embedding: []float64{0, 1, 0}},
		{Title: "SRE", URL: "u/3", Embedding: []float64{0.7, 0.7, 0}},
	}, 3)
	require.NoError(t, err)
	return idx
}

func testProfile() *types.StructuredProfile {
	years := 5
	return &types.StructuredProfile{
		SummaryText:            "Seasoned backend engineer.",
		HardSkills:             []string{"Go", "Python"},
		JobTitle:               "Backend Engineer",
		TotalYearsOfExperience: &years,
	}
}

func TestMatchFromTextEndToEnd(t *testing.T) {
	structurer := &fakeStructurer{profile: testProfile()}
	p := NewInsightProcessor(nil, structurer,
		&fakeEmbedder{vector: []float64{1, 0, 0}}, newTestIndex(t))

	result, err := p.MatchFromText(context.Background(), testResume, 6)
	require.NoError(t, err)

	// 本地解析结果
	assert.Equal(t, "jane@example.com", result.Parsed.Contact.Email)
	require.NotNil(t, result.Parsed.ExperienceYears)
	assert.Equal(t, 5, *result.Parsed.ExperienceYears)
	assert.Contains(t, result.Parsed.Skills, "Python")
	assert.Contains(t, result.Parsed.Skills, "Docker")

	// k=6 但语料库只有3条
	require.Len(t, result.Matches, 3)
	assert.Equal(t, "Backend Engineer", result.Matches[0].Title)
	for i := 1; i < len(result.Matches); i++ {
		assert.GreaterOrEqual(t, result.Matches[i-1].Score, result.Matches[i].Score)
	}

	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, testProfile().SummaryText, result.Profile.SummaryText)
}

func TestMatchFromTextCacheHitSkipsStructuring(t *testing.T) {
	structurer := &fakeStructurer{profile: testProfile()}
	cache := &memoryCache{store: map[string]*types.StructuredProfile{}}
	p := NewInsightProcessor(nil, structurer,
		&fakeEmbedder{vector: []float64{1, 0, 0}}, newTestIndex(t),
		WithProfileCache(cache))

	_, err := p.MatchFromText(context.Background(), testResume, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, structurer.calls)

	// 第二次相同输入：画像来自缓存
	_, err = p.MatchFromText(context.Background(), testResume, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, structurer.calls, "缓存命中不应再次调用结构化服务")
}

func TestMatchFromTextStructuringErrorPassesThrough(t *testing.T) {
	sErr := &parser.StructuringError{
		Kind: parser.StructuringServiceFailure,
		Err:  errors.New("状态 429 Too Many Requests"),
	}
	p := NewInsightProcessor(nil, &fakeStructurer{err: sErr},
		&fakeEmbedder{vector: []float64{1, 0, 0}}, newTestIndex(t))

	_, err := p.MatchFromText(context.Background(), testResume, 3)
	require.Error(t, err)

	var out *parser.StructuringError
	require.ErrorAs(t, err, &out, "结构化失败类别必须原样传递到API层")
	assert.Equal(t, parser.StructuringServiceFailure, out.Kind)
	assert.True(t, errors.Is(err, sErr.Err), "底层限流错误必须保留")
}

func TestMatchFromTextEmbeddingFailure(t *testing.T) {
	p := NewInsightProcessor(nil, &fakeStructurer{profile: testProfile()},
		&fakeEmbedder{err: fmt.Errorf("上游不可用")}, newTestIndex(t))

	_, err := p.MatchFromText(context.Background(), testResume, 3)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
