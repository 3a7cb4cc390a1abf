package parser

import (
	"errors"
	"fmt"
)

// StructuringErrorKind 结构化调用失败的类别
type StructuringErrorKind string

const (
	// StructuringRateLimited 上游限流；重试耗尽后升级为 SERVICE_FAILURE
	StructuringRateLimited StructuringErrorKind = "RATE_LIMITED"
	// StructuringServiceFailure 上游服务失败（网络、5xx、空响应、限流重试耗尽）
	StructuringServiceFailure StructuringErrorKind = "SERVICE_FAILURE"
	// StructuringParseFailure 模型输出无法解析为合法画像
	StructuringParseFailure StructuringErrorKind = "PARSE_FAILURE"
)

// 调用方可用 errors.Is 区分失败类别的哨兵
var (
	ErrStructuringRateLimited   = errors.New("结构化服务限流")
	ErrStructuringServiceFailed = errors.New("结构化服务调用失败")
	ErrStructuringParseFailed   = errors.New("结构化服务响应解析失败")
)

// StructuringError 结构化调用的失败详情
// Raw 在解析失败时保留模型原始输出，便于排查
type StructuringError struct {
	Kind StructuringErrorKind
	Raw  string // 模型原始输出（仅解析失败时非空）
	Err  error  // 底层错误
}

// Error 实现 error 接口
func (e *StructuringError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("结构化失败 [%s]: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("结构化失败 [%s]", e.Kind)
}

// Unwrap 返回底层错误
func (e *StructuringError) Unwrap() error {
	return e.Err
}

// Is 支持按类别哨兵匹配
func (e *StructuringError) Is(target error) bool {
	switch target {
	case ErrStructuringRateLimited:
		return e.Kind == StructuringRateLimited
	case ErrStructuringServiceFailed:
		return e.Kind == StructuringServiceFailure
	case ErrStructuringParseFailed:
		return e.Kind == StructuringParseFailure
	}
	return false
}
