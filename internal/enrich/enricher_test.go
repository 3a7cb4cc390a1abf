package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-insight-go/internal/types"
	"career-insight-go/pkg/ratelimit"
)

// countingStructurer 记录并发度，可按文本内容注入失败
type countingStructurer struct {
	mu          sync.Mutex
	inFlight    int32
	maxInFlight int32
	failures    map[string]int // 文本 → 剩余失败次数
}

func (s *countingStructurer) Structure(ctx context.Context, text string) (*types.StructuredProfile, error) {
	current := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&s.maxInFlight)
		if current <= prev || atomic.CompareAndSwapInt32(&s.maxInFlight, prev, current) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	s.mu.Lock()
	remaining := s.failures[text]
	if remaining > 0 {
		s.failures[text] = remaining - 1
		s.mu.Unlock()
		return nil, errors.New("timeout contacting upstream")
	}
	s.mu.Unlock()

	return &types.StructuredProfile{SummaryText: "profile for " + text, JobTitle: "Engineer"}, nil
}

func fastPolicy(retries int) ratelimit.RetryPolicy {
	return ratelimit.RetryPolicy{
		MaxRetries: retries,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Classify:   ratelimit.TransientClassifier,
	}
}

func TestStructureAllAlignsResultsByIndex(t *testing.T) {
	s := &countingStructurer{}
	e := NewEnricher(s, WithRetryPolicy(fastPolicy(3)))

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("job %d", i)
	}

	results := e.StructureAll(context.Background(), texts)
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, "profile for "+texts[i], r.SummaryText, "结果必须按输入下标对齐")
	}
}

func TestStructureAllBoundsConcurrency(t *testing.T) {
	s := &countingStructurer{}
	e := NewEnricher(s, WithRetryPolicy(fastPolicy(1)))

	texts := make([]string, 40)
	for i := range texts {
		texts[i] = fmt.Sprintf("job %d", i)
	}
	e.StructureAll(context.Background(), texts)

	assert.LessOrEqual(t, atomic.LoadInt32(&s.maxInFlight), int32(5), "同时在途的调用数不得超过工作池大小")
}

func TestStructureAllSentinelOnExhaustedRetries(t *testing.T) {
	s := &countingStructurer{failures: map[string]int{"bad job": 10}}
	e := NewEnricher(s, WithRetryPolicy(fastPolicy(2)))

	results := e.StructureAll(context.Background(), []string{"good job", "bad job", "another good job"})
	require.Len(t, results, 3)

	assert.False(t, results[0].IsZero())
	assert.True(t, results[1].IsZero(), "重试耗尽的任务应写入哨兵空画像")
	assert.False(t, results[2].IsZero())
}

func TestStructureAllRetriesTransientFailure(t *testing.T) {
	s := &countingStructurer{failures: map[string]int{"flaky job": 1}}
	e := NewEnricher(s, WithRetryPolicy(fastPolicy(3)))

	results := e.StructureAll(context.Background(), []string{"flaky job"})
	require.Len(t, results, 1)
	assert.False(t, results[0].IsZero(), "瞬时失败应在重试后成功")
}

func TestStructureAllEmptyInput(t *testing.T) {
	e := NewEnricher(&countingStructurer{})
	assert.Empty(t, e.StructureAll(context.Background(), nil))
}
