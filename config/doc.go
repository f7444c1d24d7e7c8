// Package config 提供 goutil 的配置管理功能。
//
// 支持从默认值、.env 文件、YAML 文件和环境变量加载配置，
// 优先级依次递增。环境变量使用 GOUTIL_ 前缀，
// 结构按 env tag 递归映射（如 GOUTIL_DATABASE_HOST）。
package config
