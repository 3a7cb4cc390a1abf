package processor

import (
	"errors"
	"fmt"
)

// 流水线各阶段的基础错误类型
var (
	ErrExtractTextFailed = errors.New("提取简历文本失败")
	ErrStructuringFailed = errors.New("候选人画像结构化失败")
	ErrEmbeddingFailed   = errors.New("画像向量化失败")
	ErrSearchFailed      = errors.New("职位检索失败")
	ErrGapAnalysisFailed = errors.New("技能差距分析失败")
	ErrClusteringFailed  = errors.New("技能聚类失败")
)

// InsightProcessError 包含详细错误信息的自定义错误
type InsightProcessError struct {
	RequestID string
	Op        string
	BaseErr   error
	Detail    string
}

func (e *InsightProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 请求:%s): %s", e.BaseErr, e.Op, e.RequestID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 请求:%s)", e.BaseErr, e.Op, e.RequestID)
}

func (e *InsightProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *InsightProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewExtractError(requestID, detail string) error {
	return &InsightProcessError{
		RequestID: requestID,
		Op:        "extract",
		BaseErr:   ErrExtractTextFailed,
		Detail:    detail,
	}
}

func NewStructuringError(requestID, detail string) error {
	return &InsightProcessError{
		RequestID: requestID,
		Op:        "structure",
		BaseErr:   ErrStructuringFailed,
		Detail:    detail,
	}
}

func NewEmbeddingError(requestID, detail string) error {
	return &InsightProcessError{
		RequestID: requestID,
		Op:        "embed",
		BaseErr:   ErrEmbeddingFailed,
		Detail:    detail,
	}
}

func NewSearchError(requestID, detail string) error {
	return &InsightProcessError{
		RequestID: requestID,
		Op:        "search",
		BaseErr:   ErrSearchFailed,
		Detail:    detail,
	}
}
