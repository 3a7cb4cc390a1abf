package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyDelaySequence(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries: 4,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
	}

	// 指数退避：1s, 2s, 4s, 8s，超过上限后封顶
	// 第4次失败后的预抖动延迟必须是 min(10, 2^3) = 8s
	assert.Equal(t, 1*time.Second, policy.Delay(1))
	assert.Equal(t, 2*time.Second, policy.Delay(2))
	assert.Equal(t, 4*time.Second, policy.Delay(3))
	assert.Equal(t, 8*time.Second, policy.Delay(4))
	assert.Equal(t, 10*time.Second, policy.Delay(5))
	assert.Equal(t, 10*time.Second, policy.Delay(9))
}

func TestRetryPolicyExhaustsAttemptsOnRateLimit(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries: 4,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Classify:   RateLimitClassifier,
	}

	calls := 0
	rateLimitErr := errors.New("上游返回: 429 Too Many Requests")
	err := policy.Do(context.Background(), func() error {
		calls++
		return rateLimitErr
	})

	require.Error(t, err)
	assert.Equal(t, rateLimitErr, err)
	// 首次调用 + 4次重试 = 5次调用，第5次失败直接返回原错误
	assert.Equal(t, 5, calls, "限流错误应在首次之外再重试4次")
}

func TestRetryPolicyFatalErrorNoRetry(t *testing.T) {
	policy := DefaultRetryPolicy()

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("invalid request body")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "不可重试错误不应触发重试")
}

func TestRetryPolicySucceedsAfterRetries(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries: 4,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("rate limit exceeded")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyContextCancelled(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries: 4,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.Do(ctx, func() error {
		return errors.New("429")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{"HTTP状态码429", errors.New("server returned 429"), Retryable},
		{"资源耗尽(空格)", errors.New("RESOURCE EXHAUSTED: quota"), Retryable},
		{"资源耗尽(下划线)", errors.New("code=RESOURCE_EXHAUSTED"), Retryable},
		{"限流文本", errors.New("Rate Limit reached for model"), Retryable},
		{"普通服务错误", errors.New("internal server error"), Fatal},
		{"解析错误", errors.New("unexpected end of JSON input"), Fatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RateLimitClassifier(tt.err))
		})
	}
}

func TestTransientClassifierCoversNetworkErrors(t *testing.T) {
	assert.Equal(t, Retryable, TransientClassifier(errors.New("dial tcp: connection refused")))
	assert.Equal(t, Retryable, TransientClassifier(errors.New("context deadline exceeded")))
	assert.Equal(t, Retryable, TransientClassifier(errors.New("429")))
	assert.Equal(t, Fatal, TransientClassifier(errors.New("字段缺失")))
}
