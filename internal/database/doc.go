// 版权所有 2024 FlowCanvas Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接池管理，为运行记录存储提供底层连接。

# 核心类型

  - PoolManager：持有 GORM DB 与底层 sql.DB，提供 DB、Ping、Stats、
    WithTransaction 与 Close。
  - PoolConfig：最大空闲连接数、最大打开连接数、连接生命周期与健康检查间隔。

# 驱动

Dialector 支持 sqlite（glebarez 纯 Go 实现）、postgres 与 mysql，
Open 直接从 config.StoreConfig 构建连接池。
*/
package database
