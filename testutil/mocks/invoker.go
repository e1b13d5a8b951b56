// MockInvoker 是模型调用的测试模拟实现。
//
// 支持按顺序注入错误、自定义回复与调用记录。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/flowcanvas/workflow"
)

var _ workflow.ModelInvoker = (*MockInvoker)(nil)

// MockInvoker 依次返回排队的错误，队列耗尽后成功回复
type MockInvoker struct {
	mu    sync.Mutex
	errs  []error
	reply func(req workflow.ModelRequest) string
	usage workflow.Usage
	calls []workflow.ModelRequest
}

// NewMockInvoker 创建默认回复 "reply to <prompt>" 的 MockInvoker
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		reply: func(req workflow.ModelRequest) string { return "reply to " + req.Prompt },
		usage: workflow.Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
	}
}

// WithErrors 追加按调用顺序返回的错误，nil 表示该次调用成功
func (m *MockInvoker) WithErrors(errs ...error) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
	return m
}

// WithReply 设置回复生成函数
func (m *MockInvoker) WithReply(reply func(req workflow.ModelRequest) string) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
	return m
}

// Invoke 实现 workflow.ModelInvoker
func (m *MockInvoker) Invoke(_ context.Context, req workflow.ModelRequest) (*workflow.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &workflow.ModelResponse{
		Model: req.Model,
		Text:  m.reply(req),
		Usage: m.usage,
	}, nil
}

// Calls 返回调用次数
func (m *MockInvoker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Requests 返回收到的请求副本
func (m *MockInvoker) Requests() []workflow.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]workflow.ModelRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
