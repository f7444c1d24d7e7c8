// 版权所有 2025 Goutil Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存访问能力。

# 概述

Client 封装 go-redis 客户端，提供字符串与 JSON 两种读写接口。
未命中返回哨兵错误 ErrCacheMiss，可用 IsCacheMiss 判断；
命中与未命中自动计入 Prometheus 指标（注入 Collector 时）。

# 核心类型

  - Client：缓存客户端，持有 Redis 连接与配置，并发安全。

# 主要能力

  - 基本读写：Get / Set / Delete / Exists / Expire。
  - JSON 读写：GetJSON / SetJSON 自动序列化与反序列化。
  - 生命周期：Ping 检查连通性，Close 幂等关闭。
*/
package cache
