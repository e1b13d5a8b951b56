// 版权所有 2024 FlowCanvas Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package store 提供基于 GORM 的 workflow.RunStore 实现，
// 将已结束的工作流运行记录持久化到 sqlite、postgres 或 mysql。
package store
