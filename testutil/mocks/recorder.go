package mocks

import (
	"sync"
	"time"
)

// HTTPRequest 是一次记录的 HTTP 观测
type HTTPRequest struct {
	Method string
	Path   string
	Status int
}

// MockRecorder 记录指标调用，用于替代 Prometheus Collector。
// 同时满足 llm.Recorder 与 HTTP 中间件的记录器接口。
type MockRecorder struct {
	mu          sync.Mutex
	requests    []string
	tokens      int
	hits        int
	misses      int
	transitions []string
	http        []HTTPRequest
}

// RecordModelRequest 记录为 "provider/model/status"
func (r *MockRecorder) RecordModelRequest(provider, model, status string, _ time.Duration, promptTokens, completionTokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, provider+"/"+model+"/"+status)
	r.tokens += promptTokens + completionTokens
}

func (r *MockRecorder) RecordCacheHit(string) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
}

func (r *MockRecorder) RecordCacheMiss(string) {
	r.mu.Lock()
	r.misses++
	r.mu.Unlock()
}

// RecordBreakerTransition 记录为 "model:state"
func (r *MockRecorder) RecordBreakerTransition(model, toState string) {
	r.mu.Lock()
	r.transitions = append(r.transitions, model+":"+toState)
	r.mu.Unlock()
}

func (r *MockRecorder) RecordHTTPRequest(method, path string, status int, _ time.Duration) {
	r.mu.Lock()
	r.http = append(r.http, HTTPRequest{Method: method, Path: path, Status: status})
	r.mu.Unlock()
}

// ModelRequests 返回模型请求记录
func (r *MockRecorder) ModelRequests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requests...)
}

// Tokens 返回累计 token 数
func (r *MockRecorder) Tokens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens
}

// CacheHits 返回缓存命中次数
func (r *MockRecorder) CacheHits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits
}

// CacheMisses 返回缓存未命中次数
func (r *MockRecorder) CacheMisses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.misses
}

// Transitions 返回熔断器状态变化记录
func (r *MockRecorder) Transitions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.transitions...)
}

// HTTPRequests 返回 HTTP 观测记录
func (r *MockRecorder) HTTPRequests() []HTTPRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HTTPRequest(nil), r.http...)
}
