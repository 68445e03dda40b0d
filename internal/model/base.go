package model

// Reference 参考表记录的公共视图：自增 ID + 唯一名称
type Reference interface {
	GetID() uint
	GetName() string
}

// Option 下拉选项（id, name）
type Option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// UintPtr 返回 v 的指针，0 视为未指定
func UintPtr(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}

// [自证通过] internal/model/base.go
