// Copyright (c) FlowCanvas Authors.
// Licensed under the MIT License.

/*
Package llm 提供 workflow.ModelInvoker 的具体实现与装饰器，执行引擎通过它们
访问大语言模型。

# 调用链

FromConfig 按配置组装如下调用链（外层到内层）：

	Instrumented → Cached → RateLimited → Breaker → OpenAI / Echo

各层职责：

  - EchoInvoker：无需凭据的本地实现，回显模型名与提示词，用于开发与测试。
  - OpenAIInvoker：基于 go-openai 的 Chat Completions 调用，错误映射为 types.Error。
  - RateLimitedInvoker：x/time/rate 令牌桶，等待中断时返回 RATE_LIMITED。
  - BreakerInvoker：按模型独立熔断，连续失败达到阈值后快速失败。
  - CachedInvoker：以请求哈希为键缓存响应，缓存故障时直接透传。
  - InstrumentedInvoker：记录 Prometheus 指标、OTel span 与结构化日志。

ModelSummarizer 基于任意 ModelInvoker 实现 workflow.Summarizer。
*/
package llm
