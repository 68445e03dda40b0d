package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsValidation_Wrapped(t *testing.T) {
	err := fmt.Errorf("批量更新: %w", NewValidation("Запись с именем '%s' уже существует.", "Центр"))
	if !IsValidation(err) {
		t.Fatal("包装后的 ValidationError 应可识别")
	}
	if IsPersistence(err) {
		t.Error("ValidationError 不应被识别为 PersistenceError")
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	cause := errors.New("unique violation")
	err := NewPersistence("commit", cause)
	if !errors.Is(err, cause) {
		t.Error("PersistenceError 应能 Unwrap 到原始错误")
	}
	if !IsPersistence(err) {
		t.Error("应识别为 PersistenceError")
	}
}

func TestNotFoundError_Message(t *testing.T) {
	err := &NotFoundError{Entity: "fo", ID: 7}
	if !IsNotFound(err) {
		t.Error("应识别为 NotFoundError")
	}
	if err.Error() == "" {
		t.Error("错误信息不应为空")
	}
}
