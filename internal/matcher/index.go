package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"career-insight-go/internal/types"
)

// 检索路径的专用tracer
var indexTracer = otel.Tracer("career-insight-go/matcher")

// ErrDimensionMismatch 向量维度与索引维度不一致
// 构建索引时命中视为致命错误，服务不应带着损坏的语料库启动
var ErrDimensionMismatch = errors.New("向量维度不匹配")

// EmbeddingIndex 内存中的职位向量索引
// 构建后不可变，可被任意数量的检索并发读取
type EmbeddingIndex struct {
	dimension int
	postings  []types.JobPosting
}

// NewEmbeddingIndex 构建向量索引
// 所有向量维度必须等于 dimension，任何一条不一致都拒绝构建；
// 向量在此处归一化为单位向量，检索时点积即余弦相似度
func NewEmbeddingIndex(postings []types.JobPosting, dimension int) (*EmbeddingIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: 维度必须为正, 得到 %d", ErrDimensionMismatch, dimension)
	}

	indexed := make([]types.JobPosting, len(postings))
	for i, p := range postings {
		if len(p.Embedding) != dimension {
			return nil, fmt.Errorf("%w: 第 %d 条 %q 维度 %d, 期望 %d",
				ErrDimensionMismatch, i, p.Title, len(p.Embedding), dimension)
		}
		indexed[i] = p
		indexed[i].Embedding = Normalize(p.Embedding)
	}

	return &EmbeddingIndex{
		dimension: dimension,
		postings:  indexed,
	}, nil
}

// Size 索引中的职位条数
func (idx *EmbeddingIndex) Size() int {
	return len(idx.postings)
}

// Dimension 索引的向量维度
func (idx *EmbeddingIndex) Dimension() int {
	return idx.dimension
}

// Search 余弦相似度 top-k 检索
// 结果按相似度降序；同分时保持语料库原始顺序；
// k 超过语料库大小时截断到全部条目
func (idx *EmbeddingIndex) Search(ctx context.Context, query []float64, k int) ([]types.JobMatch, error) {
	_, span := indexTracer.Start(ctx, "EmbeddingIndex.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "memory"),
		attribute.String("db.operation", "search"),
		attribute.Int("db.vector_size", idx.dimension),
		attribute.Int("search.top_k", k),
		attribute.Int("search.corpus_size", len(idx.postings)),
	)

	if len(query) != idx.dimension {
		err := fmt.Errorf("%w: 查询维度 %d, 索引维度 %d", ErrDimensionMismatch, len(query), idx.dimension)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if k <= 0 {
		return []types.JobMatch{}, nil
	}
	if k > len(idx.postings) {
		k = len(idx.postings)
	}

	normalized := Normalize(query)

	matches := make([]types.JobMatch, len(idx.postings))
	for i, p := range idx.postings {
		matches[i] = types.JobMatch{
			Title:       p.Title,
			Description: p.Description,
			URL:         p.URL,
			Score:       Dot(normalized, p.Embedding),
		}
	}

	// 稳定排序保证同分结果保持语料库顺序
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	span.SetAttributes(attribute.Int("search.result_count", k))
	span.SetStatus(codes.Ok, "")
	return matches[:k], nil
}

// Dot 两个等长向量的点积
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Normalize 返回单位向量副本；零向量原样返回
func Normalize(vec []float64) []float64 {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)

	out := make([]float64, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
