package log

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var logger *log.Logger

// InitLog 初始化全局日志
// appName 作为前缀，logLevel 支持 debug/info/warn/error
func InitLog(appName string, logLevel string) {
	// 使用 os.Stdout 而不是 os.Stderr
	// GoLand 控制台会将 stderr 显示为红色，stdout 显示为正常颜色
	logger = log.New(os.Stdout)
	logger.SetPrefix(appName)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	logger.SetReportCaller(true)

	if logLevel == "" {
		logLevel = "info"
	}

	switch strings.ToLower(logLevel) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
}

func ensure() *log.Logger {
	if logger == nil {
		// 测试环境下未显式初始化时的兜底
		InitLog("rmah", "info")
	}
	return logger
}

func Fatal(format string, args ...any) {
	ensure().Fatalf(format, args...)
}

func Info(format string, args ...any) {
	ensure().Infof(format, args...)
}

func Warn(format string, args ...any) {
	ensure().Warnf(format, args...)
}

func Error(format string, args ...any) {
	ensure().Errorf(format, args...)
}

func Debug(format string, args ...any) {
	ensure().Debugf(format, args...)
}
