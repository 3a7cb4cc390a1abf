package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig Redis缓存配置
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	// 画像缓存过期时间(小时)
	ProfileCacheExpireHours int `yaml:"profile_cache_expire_hours"`
}

// Config 应用程序配置
type Config struct {
	Aliyun struct {
		APIKey     string            `yaml:"api_key"`
		APIURL     string            `yaml:"api_url"`
		Model      string            `yaml:"model"`
		TaskModels map[string]string `yaml:"task_models"` // 任务专用模型
		Embedding  EmbeddingConfig   `yaml:"embedding"`   // Embedding专用配置
	} `yaml:"aliyun"`

	// 职位语料库配置
	Corpus CorpusConfig `yaml:"corpus"`

	// 技能需求排名表配置
	SkillTable SkillTableConfig `yaml:"skill_table"`

	// 结构化服务客户端配置
	Structurer StructurerConfig `yaml:"structurer"`

	// 离线富集任务配置
	Enricher EnricherConfig `yaml:"enricher"`

	// Redis配置（画像缓存，可选）
	Redis RedisConfig `yaml:"redis"`

	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`

	// 模型QPM限制配置
	ModelQPMLimits map[string]int `yaml:"model_qpm_limits"`
}

// EmbeddingConfig Aliyun Embedding专用配置
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
}

// CorpusConfig 预计算职位语料库配置
type CorpusConfig struct {
	Path        string `yaml:"path"`          // 语料库CSV快照路径
	Dimension   int    `yaml:"dimension"`     // 向量维度D，所有行必须一致
	DefaultTopK int    `yaml:"default_top_k"` // 默认检索条数
}

// SkillTableConfig 技能类别需求排名表配置
type SkillTableConfig struct {
	Path string `yaml:"path"`  // 排名表CSV路径
	TopN int    `yaml:"top_n"` // 差距分析取前N个类别
}

// StructurerConfig 结构化服务客户端配置
type StructurerConfig struct {
	ModelName        string  `yaml:"modelName"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"maxTokens"`
	CallTimeout      string  `yaml:"callTimeout"`      // 单次调用超时，例如 "60s"
	QPM              int     `yaml:"qpm"`              // 每分钟请求数限制
	MaxRetries       int     `yaml:"maxRetries"`       // 限流重试上限
	BaseDelaySeconds float64 `yaml:"baseDelaySeconds"` // 退避基准延迟(秒)
	MaxDelaySeconds  float64 `yaml:"maxDelaySeconds"`  // 退避延迟上限(秒)
}

// EnricherConfig 离线批量富集任务配置
type EnricherConfig struct {
	Workers        int     `yaml:"workers"`        // 并发结构化调用数
	MaxAttempts    int     `yaml:"max_attempts"`   // 单条任务总尝试次数（含首次）
	MinWaitSeconds float64 `yaml:"min_wait_seconds"`
	MaxWaitSeconds float64 `yaml:"max_wait_seconds"`
	OutputPath     string  `yaml:"output_path"` // 富集结果CSV输出路径
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080"
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果未指定配置文件路径，则尝试在默认位置查找
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".career-insight", "config.yaml"),
		}

		// 可执行文件所在目录及其上级目录
		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
			searchPaths = append(searchPaths, filepath.Join(execDir, "..", "config.yaml"))
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		// 仍找不到配置文件时：测试环境返回默认配置，否则使用默认路径
		if configPath == "" {
			if inTestEnv() {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	if _, err := os.Stat(configPath); err != nil {
		if inTestEnv() {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖配置（如果存在）
	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	}
	if envURL := os.Getenv("ALIYUN_API_URL"); envURL != "" {
		config.Aliyun.APIURL = envURL
	}
	if envModel := os.Getenv("ALIYUN_MODEL"); envModel != "" {
		config.Aliyun.Model = envModel
	}
	if envCorpus := os.Getenv("CORPUS_PATH"); envCorpus != "" {
		config.Corpus.Path = envCorpus
	}

	applyDefaults(&config)
	return &config, nil
}

// inTestEnv 检测当前是否运行在 go test 环境中
func inTestEnv() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

// applyDefaults 补齐未显式配置的默认值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Aliyun.Embedding.Model == "" {
		config.Aliyun.Embedding.Model = "text-embedding-v3"
	}
	if config.Aliyun.Embedding.Dimensions == 0 {
		config.Aliyun.Embedding.Dimensions = 1024
	}
	if config.Aliyun.Embedding.BaseURL == "" {
		config.Aliyun.Embedding.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}
	if config.Corpus.DefaultTopK <= 0 {
		config.Corpus.DefaultTopK = 6
	}
	if config.SkillTable.TopN <= 0 {
		config.SkillTable.TopN = 10
	}
	if config.Structurer.MaxRetries <= 0 {
		config.Structurer.MaxRetries = 4
	}
	if config.Structurer.BaseDelaySeconds <= 0 {
		config.Structurer.BaseDelaySeconds = 1.0
	}
	if config.Structurer.MaxDelaySeconds <= 0 {
		config.Structurer.MaxDelaySeconds = 10.0
	}
	if config.Structurer.CallTimeout == "" {
		config.Structurer.CallTimeout = "60s"
	}
	if config.Enricher.Workers <= 0 {
		config.Enricher.Workers = 5
	}
	if config.Enricher.MaxAttempts <= 0 {
		config.Enricher.MaxAttempts = 3
	}
	if config.Enricher.MinWaitSeconds <= 0 {
		config.Enricher.MinWaitSeconds = 1
	}
	if config.Enricher.MaxWaitSeconds <= 0 {
		config.Enricher.MaxWaitSeconds = 60
	}
	if config.Redis.ProfileCacheExpireHours <= 0 {
		config.Redis.ProfileCacheExpireHours = 24
	}
}

// createDefaultConfig 创建默认配置，用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}
	config.Aliyun.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	config.Aliyun.Model = "qwen-plus"

	config.Corpus.Path = "data/job_corpus.csv"
	config.Corpus.Dimension = 1024
	config.SkillTable.Path = "data/skill_summary_ranked.csv"

	config.Redis.Address = "localhost:6379"
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3

	config.Logger.Level = "info"
	config.Logger.Format = "pretty"
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	config.ModelQPMLimits = map[string]int{
		"qwen-max":   1200,
		"qwen-plus":  15000,
		"qwen-turbo": 1200,
	}

	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	} else {
		config.Aliyun.APIKey = "test_api_key"
	}

	applyDefaults(config)
	return config
}

// GetModelForTask 根据任务名称获取合适的模型
// 如果任务专用模型存在则返回专用模型，否则返回默认模型
func (c *Config) GetModelForTask(taskName string) string {
	if c.Aliyun.TaskModels != nil {
		if model, ok := c.Aliyun.TaskModels[taskName]; ok && model != "" {
			return model
		}
	}
	return c.Aliyun.Model
}

// GetDuration 解析配置中的时长字符串，失败时返回默认值
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
