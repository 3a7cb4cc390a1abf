package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllowConsumesTokens(t *testing.T) {
	// 容量2，初始满桶：前两次放行，第三次拒绝
	tb := NewTokenBucket(60, 2)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketWaitRefills(t *testing.T) {
	// 每秒600个令牌，耗尽后很快能等到新令牌
	tb := NewTokenBucket(36000, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := tb.Wait(ctx)
	assert.NoError(t, err)
}

func TestTokenBucketWaitRespectsContext(t *testing.T) {
	// 极低速率，令牌耗尽后等待应被上下文取消
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
