// Copyright (c) FlowCanvas Authors.
// Licensed under the MIT License.

/*
Package main 提供 FlowCanvas 命令行程序入口。

# 概述

cmd/flowcanvas 既可以在本地直接执行画布导出的工作流定义，也可以作为
HTTP 服务运行，供画布前端提交、取消和订阅工作流运行。

# 子命令

  - run       执行定义文件（.json / .yaml），结果 JSON 写到 stdout，进度写到 stderr；
    --watch 在文件变更后重新执行
  - validate  校验定义文件并打印拓扑层级
  - serve     启动 HTTP API、WebSocket 事件流与独立的 /metrics 端口
  - health    探测运行中服务的 /health
  - version   打印构建信息（Version、BuildTime、GitCommit 通过 ldflags 注入）

# 退出码

0 完成，1 节点失败，2 用法错误，3 配置或定义无效，130 运行被取消。
run 执行期间第一次 Ctrl-C 协作式取消当前运行，再次 Ctrl-C 直接退出。

# 中间件链

Recovery、RequestID、SecurityHeaders、OTelTracing、RequestLogger、
MetricsMiddleware、CORS、RateLimiter（基于 IP）、APIKeyAuth（X-API-Key，
事件流可用 api_key 查询参数）。

# 关闭顺序

信号 → 取消运行中的工作流 → 关闭事件流 → 关闭 HTTP 与 Metrics 服务 →
关闭缓存、数据库与遥测导出器。
*/
package main
