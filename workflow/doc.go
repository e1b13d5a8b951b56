// Copyright (c) FlowCanvas Authors.
// Licensed under the MIT License.

/*
Package workflow 提供画布工作流的校验、调度与执行引擎。

# 概述

一个工作流由节点（input / llm / compare / summarize / output）和有向边组成。
引擎在执行前校验图结构，按 Kahn 拓扑序逐个调度节点，将前驱节点的输出
作为当前节点的输入，并在首个失败节点处停止（fail-fast）。

# 核心接口与类型

  - Node / Edge        — 图的节点与依赖边，NodeConfig 为按类型封闭的配置
  - Validate           — 空图、环、悬空引用、逐节点必填字段校验
  - TopologicalOrder   — Kahn 拓扑排序，同时就绪的节点保持声明顺序
  - Levels             — 按依赖深度分层，供并发波次调度使用
  - Handler / Registry — 节点类型到处理器的分发表
  - Executor           — 单飞执行器：Run / RunUnchecked / Cancel / IsExecuting
  - Progress           — 进度事件：完成数、百分比、当前节点、剩余时间估计
  - Definition         — 画布 JSON / YAML 定义与到 Node/Edge 的编译
  - RunHistory         — 最近运行结果的有界内存记录

# 主要能力

  - 协作式取消：Cancel 在下一个节点开始前生效，进行中的节点结果照常记录
  - 处理器 panic 恢复为失败结果
  - 可选的波次并发（WithMaxConcurrency），结果仍按拓扑序记录
  - OpenTelemetry span 与可插拔的 MetricsRecorder
*/
package workflow
