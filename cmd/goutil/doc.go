// goutil 命令行工具。
//
// 提供数据库连通性检查（ping）与推送测试（notify）两个
// 运维辅助命令，配置来自 YAML 文件与 GOUTIL_ 前缀环境变量。
package main
