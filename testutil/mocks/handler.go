package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/flowcanvas/workflow"
)

var _ workflow.Handler = (*BlockingHandler)(nil)

// BlockingHandler 在 Release 之前阻塞每次调用，用于测试执行中状态与取消
type BlockingHandler struct {
	result  any
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	relOnce sync.Once
}

// NewBlockingHandler 创建释放后返回 result 的处理器
func NewBlockingHandler(result any) *BlockingHandler {
	return &BlockingHandler{
		result:  result,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

// Handle 标记进入后等待释放或 ctx 结束
func (h *BlockingHandler) Handle(ctx context.Context, _ workflow.Node, _ workflow.Input) (any, error) {
	h.once.Do(func() { close(h.entered) })
	select {
	case <-h.release:
		return h.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Entered 在第一次调用进入时关闭
func (h *BlockingHandler) Entered() <-chan struct{} { return h.entered }

// Release 放行所有阻塞中的调用，可重复调用
func (h *BlockingHandler) Release() {
	h.relOnce.Do(func() { close(h.release) })
}
