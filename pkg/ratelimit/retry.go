package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Classification 错误分类结果
type Classification int

const (
	// Fatal 不可重试错误，立即向上传播
	Fatal Classification = iota
	// Retryable 可重试错误（典型为限流），按退避策略重试
	Retryable
)

// Classifier 将错误归类为可重试或不可重试
type Classifier func(err error) Classification

// RetryPolicy 显式的重试策略对象
// 延迟公式：delay = min(MaxDelay, BaseDelay * 2^(attempt-1))，
// 实际休眠时间在其上再加 [0, 0.1*delay) 的均匀抖动
type RetryPolicy struct {
	MaxRetries int           // 首次调用之外的重试次数上限，总调用数 = MaxRetries + 1
	BaseDelay  time.Duration // 退避基准延迟
	MaxDelay   time.Duration // 退避延迟上限
	Classify   Classifier    // 错误分类函数，nil 时使用 RateLimitClassifier
	// rng 仅测试注入用，nil 时使用全局随机源
	rng *rand.Rand
}

// DefaultRetryPolicy 默认策略：首次之外最多重试4次，基准1秒，上限10秒，限流分类器
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 4,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Classify:   RateLimitClassifier,
	}
}

// Delay 返回第 attempt 次（从1开始）失败后的退避延迟，不含抖动
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// jitter 返回 [0, 0.1*delay) 的均匀抖动
func (p RetryPolicy) jitter(delay time.Duration) time.Duration {
	limit := float64(delay) * 0.1
	if limit <= 0 {
		return 0
	}
	if p.rng != nil {
		return time.Duration(p.rng.Float64() * limit)
	}
	return time.Duration(rand.Float64() * limit)
}

// Do 执行 fn，按策略在可重试错误上退避重试
// 首次调用不计入重试预算：MaxRetries=4 时最多调用5次，
// 第 attempt 次失败后休眠 Delay(attempt)。返回最后一次的错误；
// 不可重试错误立即返回
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	classify := p.Classify
	if classify == nil {
		classify = RateLimitClassifier
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if classify(err) != Retryable || attempt > maxRetries {
			return err
		}

		delay := p.Delay(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay + p.jitter(delay)):
			// 继续下一次尝试
		}
	}
}

// RateLimitClassifier 识别上游限流错误
// 判定依据：错误文本（小写后）包含 429 / resource exhausted /
// resource_exhausted / rate limit 之一
func RateLimitClassifier(err error) Classification {
	if err == nil {
		return Fatal
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429",
		"resource exhausted",
		"resource_exhausted",
		"rate limit",
	} {
		if strings.Contains(msg, marker) {
			return Retryable
		}
	}
	return Fatal
}

// TransientClassifier 在限流之外额外识别常见的瞬时网络错误
// 批处理任务使用，在线路径仍用 RateLimitClassifier
func TransientClassifier(err error) Classification {
	if err == nil {
		return Fatal
	}
	if RateLimitClassifier(err) == Retryable {
		return Retryable
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"eof",
		"no such host",
		"服务器繁忙",
	} {
		if strings.Contains(msg, marker) {
			return Retryable
		}
	}
	return Fatal
}
