// Package ctxkeys 定义在 context 中传递运行标识的键，
// 供执行器写入、模型调用层读取并写入日志。
package ctxkeys

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	nodeIDKey contextKey = "node_id"
)

// WithRunID 设置 RunID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取 RunID
func RunID(ctx context.Context) (string, bool) {
	return lookup(ctx, runIDKey)
}

// WithNodeID 设置当前执行的节点 ID
func WithNodeID(ctx context.Context, nodeID string) context.Context {
	return context.WithValue(ctx, nodeIDKey, nodeID)
}

// NodeID 获取当前执行的节点 ID
func NodeID(ctx context.Context) (string, bool) {
	return lookup(ctx, nodeIDKey)
}

// LogFields 返回 context 中已设置的标识对应的 zap 字段
func LogFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id, ok := RunID(ctx); ok {
		fields = append(fields, zap.String("run_id", id))
	}
	if id, ok := NodeID(ctx); ok {
		fields = append(fields, zap.String("node_id", id))
	}
	return fields
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
