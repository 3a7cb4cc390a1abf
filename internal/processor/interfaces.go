package processor

import (
	"context"
	"io"

	"career-insight-go/internal/types"
)

//
// 文本提取相关接口
//

// TextExtractor 简历文本提取器接口
type TextExtractor interface {
	// ExtractFromBytes 从内存中的PDF内容提取纯文本
	ExtractFromBytes(ctx context.Context, data []byte, uri string) (string, error)

	// ExtractFromReader 从 io.Reader 提取纯文本
	ExtractFromReader(ctx context.Context, reader io.Reader, uri string) (string, error)
}

//
// 画像相关接口
//

// ProfileStructurer 候选人画像结构化接口
type ProfileStructurer interface {
	// Structure 把压缩后的简历摘要结构化为画像
	Structure(ctx context.Context, summaryText string) (*types.StructuredProfile, error)
}

// ProfileCache 画像缓存接口，实现可选
type ProfileCache interface {
	// Get 查询缓存，未命中返回 (nil, false, nil)
	Get(ctx context.Context, summaryText string) (*types.StructuredProfile, bool, error)

	// Set 写入缓存
	Set(ctx context.Context, summaryText string, profile *types.StructuredProfile) error
}

//
// 检索相关接口
//

// JobSearcher 职位向量检索接口
type JobSearcher interface {
	// Search 余弦相似度 top-k 检索
	Search(ctx context.Context, query []float64, k int) ([]types.JobMatch, error)
}
