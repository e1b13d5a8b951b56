// Copyright (c) FlowCanvas Authors.
// Licensed under the MIT License.

// Package content 实现 workflow.ContentLoader，为未内联内容的 file 与 url
// 输入节点读取本地文件或抓取远程页面。
package content
