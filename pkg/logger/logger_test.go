package logger

import (
	"testing"

	gormlogger "gorm.io/gorm/logger"

	"github.com/Novikova-EY/arm-gs/config"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("无效日志级别应返回错误")
	}
}

func TestNewLogger_Console(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewLogger 失败: %v", err)
	}
	if l == nil {
		t.Fatal("logger 不应为 nil")
	}
}

func TestGormLevel(t *testing.T) {
	if GormLevel("debug") != gormlogger.Info {
		t.Error("debug 应映射为 gorm Info")
	}
	if GormLevel("error") != gormlogger.Error {
		t.Error("error 应映射为 gorm Error")
	}
	if GormLevel("fatal") != gormlogger.Silent {
		t.Error("未知级别应映射为 Silent")
	}
}
