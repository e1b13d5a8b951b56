// 版权所有 2024 FlowCanvas Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存管理能力，用作模型响应缓存的存储层。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端，提供 Get/Set/Delete、
    GetJSON/SetJSON、Ping 与 Close，所有键自动加上 KeyPrefix。
  - Config：地址、密码、数据库编号、键前缀、默认 TTL 与健康检查间隔。
  - Stats：进程内的命中、未命中与错误计数。

# 主要能力

  - 健康检查：后台定时 Ping，异常时通过 zap 日志告警，Close 时退出。
  - 错误语义：未命中返回 ErrCacheMiss，关闭后返回 ErrClosed。
*/
package cache
