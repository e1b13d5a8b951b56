// Package tlsutil 为出站 HTTP 客户端（模型 API、内容抓取）提供统一的
// TLS 加固配置：TLS 1.2 起步，仅 AEAD 密码套件。
package tlsutil
