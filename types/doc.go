// Copyright (c) FlowCanvas Authors.
// Licensed under the MIT License.

/*
Package types 提供 FlowCanvas 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 workflow、llm、api 等上层
模块提供统一的错误契约，以避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable、NodeID 标记

# 主要能力

  - 错误工具链：AsError / GetErrorCode / IsErrorCode / IsRetryable
  - errors.Is 按错误码匹配（可选地匹配消息）
*/
package types
