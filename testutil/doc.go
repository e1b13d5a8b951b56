// Copyright (c) FlowCanvas Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 FlowCanvas 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 文件辅助: WriteTempFile 在 t.TempDir 中写入定义或配置文件
  - 响应辅助: DecodeEnvelope 解析 API 统一响应并取出 data

# 子包

  - testutil/mocks: MockInvoker（可编排错误的模型调用）、MockRecorder
    （指标记录器）、BlockingHandler（可控阻塞的节点处理器）
  - testutil/fixtures: 预置的画布定义与图结构

# 使用示例

	inv := mocks.NewMockInvoker().WithErrors(upstreamErr)
	resp, err := inv.Invoke(testutil.TestContext(t), req)
*/
package testutil
