// 版权所有 2025 Goutil Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 mysql 提供带连接池与自动重试的 MySQL 访问层，覆盖参数化语句、
批量执行、查询与显式事务。

# 概述

本包在 database/sql 与 go-sql-driver 之上封装一个有界连接池：
借出前探活、归还前处置，瞬时连接故障按指数退避自动换新连接重试，
服务端语句错误立即上抛。事务作用域独占一条连接，提交或回滚时
恰好归还一次，作用域内不做单语句重试。

# 核心类型

  - Client：客户端，独占一个连接池，暴露全部公开操作，
    提供 Execute/ExecuteMany/Query/QueryOne 与 CRUD 辅助方法。
  - Config：连接与池参数，构造后不可变。
  - Pool：有界连接池，Acquire/Release/Discard/Ping/Close。
  - RetryPolicy：重试策略，MaxAttempts 次尝试，延迟 BaseDelay << i。
  - Tx：显式事务作用域，Begin → Exec/Query → Commit/Rollback。
  - Row：一行查询结果，列名到值的映射。

# 主要能力

  - 连接池管理：有界借出、超时返回 ErrPoolExhausted、借出前探活。
  - 自动重试：仅连接级瞬时故障重试，每次尝试取全新连接。
  - 事务管理：WithinTx 作用域化执行，出错回滚且原始错误原样上抛。
  - CRUD 辅助：Insert/Update/Delete，空 data/where 在触网前被拒绝。
  - 可观测性：zap 结构化日志、prometheus 指标、OTel 追踪埋点。

# 使用示例

	client, err := mysql.NewClient(mysql.DefaultConfig(), logger)
	if err != nil {
	    return err
	}
	defer client.Close()

	id, err := client.Insert(ctx, "orders", map[string]any{
	    "symbol": "510050",
	    "qty":    10,
	})
*/
package mysql
