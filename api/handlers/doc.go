// Copyright (c) FlowCanvas Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 FlowCanvas HTTP API 的请求处理器实现。

# 概述

handlers 包把画布 UI 的请求桥接到注入的单个 workflow.Executor，
同时提供健康检查以及统一的响应/错误处理。所有 Handler 均遵循标准
net/http 接口，路由使用 Go 1.22 的方法+路径模式。

# 核心类型

  - WorkflowHandler — 运行、校验、取消、状态、运行记录与事件流
  - EventHub        — 进程内事件广播，慢订阅者丢弃事件而不阻塞执行器
  - HealthHandler   — 服务健康检查（/health, /healthz, /ready）
  - Response        — 统一 JSON 响应结构（success + data + error + timestamp）
  - ResponseWriter  — 包装 http.ResponseWriter 以捕获状态码，支持 Hijack

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteErr / WriteJSON
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）、ValidateContentType
  - ErrorCode → HTTP 状态码映射：校验错误 400，运行中 409，未找到 404
  - WebSocket 事件流（github.com/coder/websocket）：node_start、node_complete、
    node_error、progress、run_started、run_finished
*/
package handlers
