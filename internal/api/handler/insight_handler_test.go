package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"career-insight-go/internal/parser"
)

func TestStructuringErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOK     bool
	}{
		{
			name: "限流重试耗尽升级的服务失败映射为429",
			err: &parser.StructuringError{
				Kind: parser.StructuringServiceFailure,
				Err:  errors.New("API 请求失败，状态 429 Too Many Requests"),
			},
			wantStatus: 429,
			wantOK:     true,
		},
		{
			name: "限流类别映射为429",
			err: &parser.StructuringError{
				Kind: parser.StructuringRateLimited,
				Err:  errors.New("rate limit"),
			},
			wantStatus: 429,
			wantOK:     true,
		},
		{
			name: "普通服务失败映射为502",
			err: &parser.StructuringError{
				Kind: parser.StructuringServiceFailure,
				Err:  errors.New("内部服务错误"),
			},
			wantStatus: 502,
			wantOK:     true,
		},
		{
			name: "解析失败映射为502",
			err: &parser.StructuringError{
				Kind: parser.StructuringParseFailure,
				Raw:  "not json",
				Err:  errors.New("无法从响应中提取有效的JSON"),
			},
			wantStatus: 502,
			wantOK:     true,
		},
		{
			name:   "非结构化错误不处理",
			err:    errors.New("别的错误"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := StructuringErrorStatus(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantStatus, status)
			}
		})
	}
}
