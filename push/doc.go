// 版权所有 2025 Goutil Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 push 提供微信推送通知能力。

# 概述

Notifier 通过虾推啥（xtuis.cn）通道发送微信提醒；Queue 在其上
提供带限速的异步发送队列，消息入队后由 worker 协程按令牌桶
速率消费，关闭时排空已入队的消息。

# 核心类型

  - Sender：推送通道抽象，Queue 通过它解耦具体实现。
  - Notifier：虾推啥 HTTP 通道，实现 Sender。
  - Queue：异步发送队列，带限速、统计与指标上报。

# 主要能力

  - 同步发送：Notifier.Send 直接推送一条消息。
  - 异步发送：Queue.Enqueue 入队立即返回，满队返回 ErrQueueFull。
  - 优雅关闭：Queue.Close 停止接收并发完存量消息。
*/
package push
