// Package logging 提供基于 zap 的日志初始化能力。
//
// 支持 console 与 json 两种编码格式，日志级别、调用者信息与
// 堆栈跟踪均通过 config.LogConfig 控制。配置日志目录后，
// 日志同时按日期写入 app_YYYY-MM-DD.log 文件。
package logging
