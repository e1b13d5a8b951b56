// 版权所有 2024 FlowCanvas Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 FlowCanvas 的 HTTP 服务器生命周期，API 服务与
Prometheus 指标服务各持有一个 Manager。

# 核心类型

  - Manager：封装 net/http.Server，提供非阻塞 Start、可重复调用的
    Shutdown 以及异步错误通道 Errors。
  - Config：监听地址、读写超时、空闲超时、最大请求头与关闭超时，
    可通过 FromServerConfig 从应用配置派生。

信号处理由调用方负责，通常与工作流取消一起在 cmd 层完成。
*/
package server
