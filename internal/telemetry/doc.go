// 版权所有 2024 FlowCanvas Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package telemetry 负责 OpenTelemetry SDK 的初始化，为工作流执行器
// 提供 TracerProvider 与 MeterProvider。遥测关闭时保持全局 noop 实现，
// 不连接任何外部服务。
package telemetry
