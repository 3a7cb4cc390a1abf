package enrich

import (
	"context"
	"sync"
	"time"

	"career-insight-go/internal/logger"
	"career-insight-go/internal/types"
	"career-insight-go/pkg/ratelimit"
)

// 默认并发结构化调用数
const defaultWorkers = 5

// Structurer 画像结构化的消费端接口
// *parser.ProfileStructurer 满足该接口
type Structurer interface {
	Structure(ctx context.Context, text string) (*types.StructuredProfile, error)
}

// Enricher 离线批量富集：把职位描述批量结构化
// 固定大小的工作池限制同时在途的上游调用数
type Enricher struct {
	structurer Structurer
	workers    int
	policy     ratelimit.RetryPolicy
}

// Option 富集器配置选项
type Option func(*Enricher)

// WithWorkers 设置工作池大小
func WithWorkers(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRetryPolicy 设置单条任务的重试策略
func WithRetryPolicy(policy ratelimit.RetryPolicy) Option {
	return func(e *Enricher) { e.policy = policy }
}

// NewEnricher 创建批量富集器
// 默认5个工作协程；批处理额外容忍瞬时网络错误
func NewEnricher(structurer Structurer, options ...Option) *Enricher {
	e := &Enricher{
		structurer: structurer,
		workers:    defaultWorkers,
		policy: ratelimit.RetryPolicy{
			// 首次之外再重试2次，每条任务共3次尝试
			MaxRetries: 2,
			BaseDelay:  1 * time.Second,
			MaxDelay:   60 * time.Second,
			Classify:   ratelimit.TransientClassifier,
		},
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

type task struct {
	index int
	text  string
}

// StructureAll 批量结构化
// 返回切片与输入等长且按输入下标对齐；
// 单条任务重试耗尽后写入哨兵空画像，整批继续，绝不中断
func (e *Enricher) StructureAll(ctx context.Context, texts []string) []types.StructuredProfile {
	results := make([]types.StructuredProfile, len(texts))
	if len(texts) == 0 {
		return results
	}

	tasks := make(chan task)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(texts) {
		workers = len(texts)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				// 每个下标只有一个工作协程写入，无需加锁
				results[t.index] = e.structureOne(ctx, t)
			}
		}()
	}

	for i, text := range texts {
		select {
		case tasks <- task{index: i, text: text}:
		case <-ctx.Done():
			// 上下文取消：未分发的任务保持哨兵空画像
			close(tasks)
			wg.Wait()
			return results
		}
	}
	close(tasks)
	wg.Wait()

	return results
}

// structureOne 带重试地处理一条任务，失败降级为哨兵空画像
func (e *Enricher) structureOne(ctx context.Context, t task) types.StructuredProfile {
	var profile *types.StructuredProfile
	err := e.policy.Do(ctx, func() error {
		var callErr error
		profile, callErr = e.structurer.Structure(ctx, t.text)
		return callErr
	})

	if err != nil || profile == nil {
		logger.Warn().Int("index", t.index).Err(err).Msg("批量结构化任务失败，写入哨兵空画像")
		return types.StructuredProfile{}
	}
	return *profile
}
