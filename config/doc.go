// Package config 提供 FlowCanvas 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（前缀 FLOWCANVAS）的顺序加载，
// 并提供轮询式的文件变更监听器，用于工作流定义文件的自动重跑。
package config
