package ratelimit

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// RateLimitedLLMModel 对LLM模型的调用进行限流的代理
// 每次调用先消耗一个令牌，失败后按 RetryPolicy 退避重试
type RateLimitedLLMModel struct {
	original    model.ToolCallingChatModel
	rateLimiter *TokenBucket
	policy      RetryPolicy
}

// NewRateLimitedLLMModel 创建一个新的限流LLM模型代理
func NewRateLimitedLLMModel(original model.ToolCallingChatModel, qpm int) *RateLimitedLLMModel {
	return &RateLimitedLLMModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2), // 容量设为QPM的一半，允许一定的突发流量
		policy:      DefaultRetryPolicy(),
	}
}

// WithRetryPolicy 替换重试策略
func (rl *RateLimitedLLMModel) WithRetryPolicy(policy RetryPolicy) *RateLimitedLLMModel {
	rl.policy = policy
	return rl
}

// Generate 代理Generate方法，增加限流和重试逻辑
func (rl *RateLimitedLLMModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	var response *schema.Message

	err := rl.policy.Do(ctx, func() error {
		if waitErr := rl.rateLimiter.Wait(ctx); waitErr != nil {
			return waitErr
		}
		var genErr error
		response, genErr = rl.original.Generate(ctx, messages, options...)
		return genErr
	})

	return response, err
}

// Stream 代理Stream方法，增加限流和重试逻辑
func (rl *RateLimitedLLMModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]

	err := rl.policy.Do(ctx, func() error {
		if waitErr := rl.rateLimiter.Wait(ctx); waitErr != nil {
			return waitErr
		}
		var streamErr error
		stream, streamErr = rl.original.Stream(ctx, messages, options...)
		return streamErr
	})

	return stream, err
}

// WithTools 代理WithTools方法
func (rl *RateLimitedLLMModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}

	// 创建一个新的限流代理，共享限流器与策略
	return &RateLimitedLLMModel{
		original:    newModel,
		rateLimiter: rl.rateLimiter,
		policy:      rl.policy,
	}, nil
}

// NewLLMWithRateLimit 根据模型名和QPM配置表创建带限流的LLM模型
func NewLLMWithRateLimit(original model.ToolCallingChatModel, modelName string, qpmLimits map[string]int, customQPM int, policy RetryPolicy) model.ToolCallingChatModel {
	qpm := customQPM

	// 配置表中有模型专属限制时，取其90%作为安全值
	if qpmLimits != nil && modelName != "" {
		if modelQPM, ok := qpmLimits[modelName]; ok && modelQPM > 0 {
			qpm = int(float64(modelQPM) * 0.9)
		}
	}

	if qpm <= 0 {
		qpm = 30 // 默认QPM
	}

	limited := NewRateLimitedLLMModel(original, qpm)
	limited.WithRetryPolicy(policy)
	return limited
}
