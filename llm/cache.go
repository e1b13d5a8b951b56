package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/internal/cache"
	"github.com/BaSui01/flowcanvas/workflow"
)

const cacheType = "model_response"

// ResponseStore 是 CachedInvoker 的存储后端，cache.Manager 实现了它
type ResponseStore interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CacheRecorder 接收缓存命中统计
type CacheRecorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// CachedInvoker 缓存模型响应。存储故障按未命中处理，不影响调用结果。
type CachedInvoker struct {
	next     workflow.ModelInvoker
	store    ResponseStore
	ttl      time.Duration
	recorder CacheRecorder
	logger   *zap.Logger
}

var _ workflow.ModelInvoker = (*CachedInvoker)(nil)

// NewCachedInvoker 创建缓存装饰器；ttl 为 0 时使用存储的默认过期时间
func NewCachedInvoker(next workflow.ModelInvoker, store ResponseStore, ttl time.Duration, recorder CacheRecorder, logger *zap.Logger) *CachedInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedInvoker{
		next:     next,
		store:    store,
		ttl:      ttl,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "model_cache")),
	}
}

// Invoke 实现 workflow.ModelInvoker
func (c *CachedInvoker) Invoke(ctx context.Context, req workflow.ModelRequest) (*workflow.ModelResponse, error) {
	key := CacheKey(req)

	var cached workflow.ModelResponse
	err := c.store.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		c.hit()
		return &cached, nil
	case !cache.IsCacheMiss(err):
		c.logger.Warn("model cache read failed", zap.String("model", req.Model), zap.Error(err))
	}
	c.miss()

	resp, err := c.next.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetJSON(ctx, key, resp, c.ttl); err != nil {
		c.logger.Warn("model cache write failed", zap.String("model", req.Model), zap.Error(err))
	}
	return resp, nil
}

func (c *CachedInvoker) hit() {
	if c.recorder != nil {
		c.recorder.RecordCacheHit(cacheType)
	}
}

func (c *CachedInvoker) miss() {
	if c.recorder != nil {
		c.recorder.RecordCacheMiss(cacheType)
	}
}

// CacheKey 由模型、提示词与采样参数派生缓存键；节点 ID 不参与
func CacheKey(req workflow.ModelRequest) string {
	data, _ := json.Marshal(struct {
		Model       string  `json:"model"`
		Prompt      string  `json:"prompt"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}{req.Model, req.Prompt, req.Temperature, req.MaxTokens})
	sum := sha256.Sum256(data)
	return "resp:" + hex.EncodeToString(sum[:16])
}
