package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaultConfig(t *testing.T) {
	cfg := createDefaultConfig()

	assert.Equal(t, "qwen-plus", cfg.Aliyun.Model)
	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions", cfg.Aliyun.APIURL)
	assert.Equal(t, ":8080", cfg.Server.Address)

	// applyDefaults 必须生效
	assert.Equal(t, 6, cfg.Corpus.DefaultTopK)
	assert.Equal(t, 10, cfg.SkillTable.TopN)
	assert.Equal(t, 4, cfg.Structurer.MaxRetries)
	assert.Equal(t, 1.0, cfg.Structurer.BaseDelaySeconds)
	assert.Equal(t, 10.0, cfg.Structurer.MaxDelaySeconds)
	assert.Equal(t, 5, cfg.Enricher.Workers)
	assert.Equal(t, 1024, cfg.Aliyun.Embedding.Dimensions)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
aliyun:
  api_key: "file_key"
  model: "qwen-max"
  task_models:
    structure: "qwen-plus"
corpus:
  path: "data/corpus.csv"
  dimension: 1024
  default_top_k: 8
skill_table:
  path: "data/table.csv"
  top_n: 15
server:
  address: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file_key", cfg.Aliyun.APIKey)
	assert.Equal(t, 8, cfg.Corpus.DefaultTopK)
	assert.Equal(t, 15, cfg.SkillTable.TopN)
	assert.Equal(t, ":9090", cfg.Server.Address)
	// 文件未配置的项回落到默认值
	assert.Equal(t, 4, cfg.Structurer.MaxRetries)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
aliyun:
  api_key: "file_key"
corpus:
  path: "data/corpus.csv"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("ALIYUN_API_KEY", "env_key")
	t.Setenv("CORPUS_PATH", "/override/corpus.csv")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env_key", cfg.Aliyun.APIKey)
	assert.Equal(t, "/override/corpus.csv", cfg.Corpus.Path)
}

func TestGetModelForTask(t *testing.T) {
	cfg := createDefaultConfig()
	cfg.Aliyun.Model = "qwen-plus"
	cfg.Aliyun.TaskModels = map[string]string{
		"structure": "qwen-max",
		"empty":     "",
	}

	assert.Equal(t, "qwen-max", cfg.GetModelForTask("structure"))
	// 未配置或配置为空的任务回落到默认模型
	assert.Equal(t, "qwen-plus", cfg.GetModelForTask("categorize"))
	assert.Equal(t, "qwen-plus", cfg.GetModelForTask("empty"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration("30s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}
