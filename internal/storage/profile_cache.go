package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"career-insight-go/internal/config"
	"career-insight-go/internal/logger"
	"career-insight-go/internal/types"
)

// 画像缓存键前缀，键为简历摘要文本的MD5
const profileCacheKeyPrefix = "career_insight:profile_cache:"

// ProfileCache 结构化画像的Redis缓存
// 同一份简历文本的重复上传直接命中缓存，省一次LLM调用
type ProfileCache struct {
	client *redis.Client
	expire time.Duration
}

// NewProfileCache 创建画像缓存并验证连通性
func NewProfileCache(ctx context.Context, cfg config.RedisConfig) (*ProfileCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 %s: %w", cfg.Address, err)
	}

	logger.Info().Str("address", cfg.Address).Int("db", cfg.DB).Msg("画像缓存已连接")
	return &ProfileCache{
		client: client,
		expire: time.Duration(cfg.ProfileCacheExpireHours) * time.Hour,
	}, nil
}

// cacheKey 摘要文本的MD5十六进制键
func cacheKey(summaryText string) string {
	sum := md5.Sum([]byte(summaryText))
	return profileCacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get 查询缓存的画像，未命中返回 (nil, false, nil)
func (c *ProfileCache) Get(ctx context.Context, summaryText string) (*types.StructuredProfile, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(summaryText)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取画像缓存失败: %w", err)
	}

	var profile types.StructuredProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		// 损坏的缓存项按未命中处理，删除后走正常结构化
		logger.Warn().Err(err).Msg("画像缓存项损坏，已丢弃")
		c.client.Del(ctx, cacheKey(summaryText))
		return nil, false, nil
	}

	return &profile, true, nil
}

// Set 写入画像缓存
func (c *ProfileCache) Set(ctx context.Context, summaryText string, profile *types.StructuredProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("序列化画像失败: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(summaryText), data, c.expire).Err(); err != nil {
		return fmt.Errorf("写入画像缓存失败: %w", err)
	}
	return nil
}

// Close 关闭底层连接池
func (c *ProfileCache) Close() error {
	return c.client.Close()
}
