// 版权所有 2025 Goutil Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖数据库、
缓存与推送三个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
工厂按传入的 Registerer 注册，测试可用独立 Registry 隔离。
所有指标按 namespace 隔离，支持多维度 label 分组。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 向量指标，按业务域分组管理。

# 主要能力

  - 数据库指标：操作耗时 Histogram、操作计数（按状态）、重试计数、
    在借/空闲连接数 Gauge，按 database/operation 分组。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
  - 推送指标：成功/失败推送计数、队列深度 Gauge，按 channel 分组。
*/
package metrics
