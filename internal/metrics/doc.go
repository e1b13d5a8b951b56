// 版权所有 2024 FlowCanvas Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖
HTTP、工作流、模型调用与缓存四个维度。

# 概述

Collector 使用 promauto 注册到默认 Registry，所有指标按 namespace 隔离。
Collector 同时满足 workflow.MetricsRecorder 与 llm 包中的记录器接口，
由 cmd 层注入到执行器和模型调用链中。

# 主要能力

  - HTTP 指标：请求总数与耗时，状态码归类为 2xx/3xx/4xx/5xx。
  - 工作流指标：按终态统计的运行次数与耗时、每次运行执行的节点数、
    按节点类型统计的执行次数与耗时。
  - 模型指标：请求总数、耗时、Token 用量、熔断器状态变更。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
*/
package metrics
